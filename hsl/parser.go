package hsl

const (
	precOr  = 10
	precAnd = 20
)

// Parse compiles an HSL query string into its clause tree and sort specification.
// Grammar failures return a *SyntaxError; meaningless literals return a *SemanticError.
func Parse(query string) (Query, error) {
	p := &parser{query: query, toks: tokenize(query)}

	clause, err := p.clause(0)
	if err != nil {
		return Query{}, err
	}

	var sort []SortField
	if p.peek().is("order") {
		p.next()
		if !p.peek().is("by") {
			return Query{}, p.fail(p.peek(), "BY")
		}
		p.next()
		sort, err = p.sortFields()
		if err != nil {
			return Query{}, err
		}
	}

	if t := p.peek(); t.kind != tokEOF {
		return Query{}, p.fail(t, "AND, OR, ORDER BY or end of query")
	}
	return Query{Clause: clause, Sort: sort}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(query string) Query {
	q, err := Parse(query)
	if err != nil {
		panic(err)
	}
	return q
}

type parser struct {
	query string
	toks  []token
	pos   int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) fail(t token, expected string) error {
	return &SyntaxError{
		Query:    p.query,
		Line:     t.line,
		Column:   t.column,
		Found:    t.describe(),
		Expected: expected,
	}
}

// binary returns the precedence and kind of a connective token.
func binary(t token) (int, ClauseKind, bool) {
	switch {
	case t.is("and"):
		return precAnd, ClauseAnd, true
	case t.is("or"):
		return precOr, ClauseOr, true
	}
	return 0, 0, false
}

// clause parses terms joined by AND/OR using precedence climbing.
// Both connectives are left-associative.
func (p *parser) clause(minPrec int) (*Clause, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		prec, kind, ok := binary(p.peek())
		if !ok || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.clause(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Clause{Kind: kind, Left: left, Right: right}
	}
}

func (p *parser) term() (*Clause, error) {
	t := p.peek()
	if t.kind == tokLParen {
		p.next()
		inner, err := p.clause(0)
		if err != nil {
			return nil, err
		}
		if c := p.peek(); c.kind != tokRParen {
			return nil, p.fail(c, "')'")
		}
		p.next()
		return inner, nil
	}

	symbol, err := p.symbol()
	if err != nil {
		return nil, err
	}

	opTok := p.peek()
	if opTok.kind != tokOperator {
		return nil, p.fail(opTok, "one of =, >, >=, <, <=")
	}
	p.next()
	op := operatorOf(opTok.text)

	valTok := p.peek()
	if valTok.kind != tokWord && valTok.kind != tokQuoted {
		return nil, p.fail(valTok, "a value")
	}
	p.next()

	value, err := typedValue(symbol, op, valTok.text)
	if err != nil {
		return nil, err
	}
	return Node(symbol, op, value), nil
}

func (p *parser) symbol() (Symbol, error) {
	t := p.peek()
	if t.kind == tokWord {
		if s, ok := lookupSymbol(t.text); ok {
			p.next()
			return s, nil
		}
	}
	return 0, p.fail(t, "'(' or one of name, size, created, last_modified")
}

func operatorOf(text string) Operator {
	switch text {
	case ">":
		return OpGreater
	case ">=":
		return OpGreaterOrEqual
	case "<":
		return OpLess
	case "<=":
		return OpLessOrEqual
	default:
		return OpEquals
	}
}

func (p *parser) sortFields() ([]SortField, error) {
	var fields []SortField
	for {
		symbol, err := p.symbol()
		if err != nil {
			return nil, err
		}
		field := SortField{Symbol: symbol, Direction: Asc}
		switch t := p.peek(); {
		case t.is("asc"):
			p.next()
		case t.is("desc"):
			p.next()
			field.Direction = Desc
		}
		fields = append(fields, field)

		if p.peek().kind != tokComma {
			return fields, nil
		}
		p.next()
	}
}
