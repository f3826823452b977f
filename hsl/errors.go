package hsl

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax matches every *SyntaxError.
	ErrSyntax = errors.New("hsl: syntax error")
	// ErrSemantic matches every *SemanticError.
	ErrSemantic = errors.New("hsl: semantic error")
)

// SyntaxError reports a query that does not match the grammar.
// Line and Column are 1-based and point at the first token that could not be parsed.
type SyntaxError struct {
	Query    string
	Line     int
	Column   int
	Found    string
	Expected string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("cannot parse query %q: line %d, column %d: found %s, expected %s",
		e.Query, e.Line, e.Column, e.Found, e.Expected)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// SemanticError reports a well-formed comparison that has no meaning, such as an
// unparseable size literal or an operator the symbol does not support.
type SemanticError struct {
	Symbol   Symbol
	Operator Operator
	Literal  string
	Reason   string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("invalid comparison %s %s %q: %s", e.Symbol, e.Operator, e.Literal, e.Reason)
}

func (e *SemanticError) Is(target error) bool { return target == ErrSemantic }
