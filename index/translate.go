package index

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lexandro/hslindex/hsl"
)

// nameAnalysis is the analyser indexed names go through, taken from the index mapping.
var nameAnalysis = sync.OnceValues(func() (analysis.Analyzer, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	analyzer := indexMapping.AnalyzerNamed(nameAnalyzer)
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer %s not registered", nameAnalyzer)
	}
	return analyzer, nil
})

// NameTerms splits and folds a NAME literal into the words an indexed name is stored as.
func NameTerms(s string) ([]string, error) {
	analyzer, err := nameAnalysis()
	if err != nil {
		return nil, err
	}
	tokens := analyzer.Analyze([]byte(s))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		terms = append(terms, string(token.Term))
	}
	return terms, nil
}

// Translate converts a clause tree into a bleve query.
func Translate(c *hsl.Clause) (query.Query, error) {
	if c == nil {
		return nil, fmt.Errorf("translating nil clause")
	}
	switch c.Kind {
	case hsl.ClauseAnd, hsl.ClauseOr:
		left, err := Translate(c.Left)
		if err != nil {
			return nil, err
		}
		right, err := Translate(c.Right)
		if err != nil {
			return nil, err
		}
		if c.Kind == hsl.ClauseAnd {
			return bleve.NewConjunctionQuery(left, right), nil
		}
		return bleve.NewDisjunctionQuery(left, right), nil
	case hsl.ClauseNode:
		return translatePredicate(c.Predicate)
	default:
		return nil, fmt.Errorf("unknown clause kind %d", c.Kind)
	}
}

func translatePredicate(p hsl.Predicate) (query.Query, error) {
	switch p.Symbol {
	case hsl.SymbolName:
		if p.Operator != hsl.OpEquals {
			return nil, semanticError(p, "name only supports =")
		}
		if p.Value.Kind != hsl.KindString {
			return nil, semanticError(p, "name expects text")
		}
		words, err := NameTerms(p.Value.Text)
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, semanticError(p, "name has no words")
		}
		return nameQuery(words), nil
	case hsl.SymbolSize:
		if p.Value.Kind != hsl.KindDataSize {
			return nil, semanticError(p, "size expects a data size")
		}
		return numericRange(p.Symbol.Field(), p.Operator, float64(p.Value.Bytes)), nil
	case hsl.SymbolCreated, hsl.SymbolLastModified:
		if p.Value.Kind != hsl.KindDate && p.Value.Kind != hsl.KindInstant {
			return nil, semanticError(p, "expects a date or instant")
		}
		return numericRange(p.Symbol.Field(), p.Operator, float64(p.Value.EpochMillis())), nil
	default:
		return nil, semanticError(p, "unknown symbol")
	}
}

func semanticError(p hsl.Predicate, reason string) error {
	return &hsl.SemanticError{Symbol: p.Symbol, Operator: p.Operator, Literal: p.Value.Raw, Reason: reason}
}

// nameQuery matches a word exactly or as a prefix; multi-word values require every word.
func nameQuery(words []string) query.Query {
	if len(words) == 1 {
		return termOrPrefix(words[0])
	}
	perWord := make([]query.Query, len(words))
	for i, w := range words {
		perWord[i] = termOrPrefix(w)
	}
	return bleve.NewConjunctionQuery(perWord...)
}

func termOrPrefix(word string) query.Query {
	term := bleve.NewTermQuery(word)
	term.SetField(nameField)
	prefix := bleve.NewPrefixQuery(word)
	prefix.SetField(nameField)
	return bleve.NewDisjunctionQuery(term, prefix)
}

// numericRange maps an operator to an inclusive range over field. Nil bounds are open.
func numericRange(field string, op hsl.Operator, n float64) *query.NumericRangeQuery {
	var min, max *float64
	switch op {
	case hsl.OpEquals:
		min, max = &n, &n
	case hsl.OpGreater:
		lo := n + 1
		min = &lo
	case hsl.OpGreaterOrEqual:
		min = &n
	case hsl.OpLess:
		hi := n - 1
		max = &hi
	case hsl.OpLessOrEqual:
		max = &n
	}
	inclusive := true
	q := bleve.NewNumericRangeInclusiveQuery(min, max, &inclusive, &inclusive)
	q.SetField(field)
	return q
}

// TranslateSort converts a sort specification into a bleve sort order. The document id is
// always the last key so equal rows come back in a stable order.
func TranslateSort(fields []hsl.SortField) search.SortOrder {
	order := make(search.SortOrder, 0, len(fields)+1)
	for _, f := range fields {
		desc := f.Direction == hsl.Desc
		if f.Symbol == hsl.SymbolName {
			order = append(order, &search.SortField{Field: pathField, Desc: desc, Type: search.SortFieldAsString})
			continue
		}
		order = append(order, &search.SortField{Field: f.Symbol.Field(), Desc: desc, Type: search.SortFieldAsNumber})
	}
	return append(order, &search.SortDocID{})
}

// Range is the inclusive numeric interval a comparison translates to. Nil bounds are open.
type Range struct {
	Field string
	Min   *float64
	Max   *float64
}

// RangeOf reports the interval of a translated SIZE, CREATED or LAST_MODIFIED comparison.
func RangeOf(q query.Query) (Range, bool) {
	nr, ok := q.(*query.NumericRangeQuery)
	if !ok {
		return Range{}, false
	}
	return Range{Field: nr.Field(), Min: nr.Min, Max: nr.Max}, true
}
