// Package hsl compiles HSL query strings into a clause tree plus sort specification.
//
// HSL example:
//
//	name = "annual report" AND size > 10mb OR last_modified >= '2020-01-17' ORDER BY size DESC
package hsl

import (
	"fmt"
	"strings"
)

// Symbol is a queryable file attribute.
type Symbol int

const (
	SymbolName Symbol = iota
	SymbolSize
	SymbolCreated
	SymbolLastModified
)

// Field returns the index field the symbol is stored under.
func (s Symbol) Field() string {
	switch s {
	case SymbolName:
		return "name"
	case SymbolSize:
		return "size"
	case SymbolCreated:
		return "created"
	case SymbolLastModified:
		return "last_modified"
	default:
		return ""
	}
}

func (s Symbol) String() string {
	switch s {
	case SymbolName:
		return "NAME"
	case SymbolSize:
		return "SIZE"
	case SymbolCreated:
		return "CREATED"
	case SymbolLastModified:
		return "LAST_MODIFIED"
	default:
		return fmt.Sprintf("Symbol(%d)", int(s))
	}
}

// lookupSymbol resolves a case-insensitive symbol keyword.
func lookupSymbol(word string) (Symbol, bool) {
	switch strings.ToLower(word) {
	case "name":
		return SymbolName, true
	case "size":
		return SymbolSize, true
	case "created":
		return SymbolCreated, true
	case "last_modified":
		return SymbolLastModified, true
	}
	return 0, false
}

// Operator is a comparison between a symbol and a value.
type Operator int

const (
	OpEquals Operator = iota
	OpGreater
	OpGreaterOrEqual
	OpLess
	OpLessOrEqual
)

func (o Operator) String() string {
	switch o {
	case OpEquals:
		return "="
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpLess:
		return "<"
	case OpLessOrEqual:
		return "<="
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// ClauseKind discriminates the variants of Clause.
type ClauseKind int

const (
	ClauseAnd ClauseKind = iota
	ClauseOr
	ClauseNode
)

// Clause is a node of the boolean query tree. And/Or clauses use Left and Right;
// Node clauses use Predicate.
type Clause struct {
	Kind      ClauseKind
	Left      *Clause
	Right     *Clause
	Predicate Predicate
}

// Predicate is a leaf comparison.
type Predicate struct {
	Symbol   Symbol
	Operator Operator
	Value    Value
}

// And builds an AND clause.
func And(left, right *Clause) *Clause {
	return &Clause{Kind: ClauseAnd, Left: left, Right: right}
}

// Or builds an OR clause.
func Or(left, right *Clause) *Clause {
	return &Clause{Kind: ClauseOr, Left: left, Right: right}
}

// Node builds a leaf clause.
func Node(symbol Symbol, op Operator, value Value) *Clause {
	return &Clause{Kind: ClauseNode, Predicate: Predicate{Symbol: symbol, Operator: op, Value: value}}
}

// String renders the clause fully parenthesised, e.g. ((SIZE > 10) AND (NAME = "a")).
func (c *Clause) String() string {
	if c == nil {
		return "<nil>"
	}
	switch c.Kind {
	case ClauseAnd:
		return "(" + c.Left.String() + " AND " + c.Right.String() + ")"
	case ClauseOr:
		return "(" + c.Left.String() + " OR " + c.Right.String() + ")"
	default:
		p := c.Predicate
		return fmt.Sprintf("(%s %s %s)", p.Symbol, p.Operator, p.Value)
	}
}

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// SortField orders results by one symbol.
type SortField struct {
	Symbol    Symbol
	Direction Direction
}

// Query is a compiled HSL query.
type Query struct {
	Clause *Clause
	Sort   []SortField
}

func (q Query) String() string {
	if len(q.Sort) == 0 {
		return q.Clause.String()
	}
	parts := make([]string, len(q.Sort))
	for i, s := range q.Sort {
		parts[i] = s.Symbol.String() + " " + s.Direction.String()
	}
	return q.Clause.String() + " ORDER BY " + strings.Join(parts, ", ")
}
