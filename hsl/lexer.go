package hsl

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokQuoted
	tokOperator
	tokLParen
	tokRParen
	tokComma
	tokIllegal
)

type token struct {
	kind   tokenKind
	text   string // unquoted text for tokQuoted
	line   int
	column int
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokQuoted:
		return fmt.Sprintf("quoted %q", t.text)
	case tokIllegal:
		return fmt.Sprintf("illegal %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// is reports whether t is the given case-insensitive bare keyword.
func (t token) is(keyword string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, keyword)
}

func isBareRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_'
}

// lexer splits a query into tokens, tracking 1-based line and column (in runes).
type lexer struct {
	src    string
	pos    int
	line   int
	column int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, column: 1}
}

func (l *lexer) peekRune() (rune, int) {
	if l.pos >= len(l.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(l.src[l.pos:])
}

func (l *lexer) advance(r rune, width int) {
	l.pos += width
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

func (l *lexer) skipSpace() {
	for {
		r, w := l.peekRune()
		if w == 0 || !unicode.IsSpace(r) {
			return
		}
		l.advance(r, w)
	}
}

func (l *lexer) next() token {
	l.skipSpace()
	start := token{line: l.line, column: l.column}
	r, w := l.peekRune()
	if w == 0 {
		start.kind = tokEOF
		return start
	}

	switch {
	case r == '(':
		l.advance(r, w)
		start.kind, start.text = tokLParen, "("
	case r == ')':
		l.advance(r, w)
		start.kind, start.text = tokRParen, ")"
	case r == ',':
		l.advance(r, w)
		start.kind, start.text = tokComma, ","
	case r == '=':
		l.advance(r, w)
		start.kind, start.text = tokOperator, "="
	case r == '<' || r == '>':
		l.advance(r, w)
		start.kind, start.text = tokOperator, string(r)
		if n, nw := l.peekRune(); n == '=' {
			l.advance(n, nw)
			start.text += "="
		}
	case r == '"' || r == '\'':
		return l.quoted(start, r, w)
	case isBareRune(r):
		from := l.pos
		for {
			c, cw := l.peekRune()
			if cw == 0 || !isBareRune(c) {
				break
			}
			l.advance(c, cw)
		}
		start.kind, start.text = tokWord, l.src[from:l.pos]
	default:
		l.advance(r, w)
		start.kind, start.text = tokIllegal, string(r)
	}
	return start
}

// quoted reads a single- or double-quoted token. A backslash escapes the next rune.
func (l *lexer) quoted(start token, quote rune, width int) token {
	l.advance(quote, width)
	var b strings.Builder
	for {
		r, w := l.peekRune()
		if w == 0 {
			start.kind, start.text = tokIllegal, string(quote)+b.String()
			return start
		}
		l.advance(r, w)
		if r == quote {
			start.kind, start.text = tokQuoted, b.String()
			return start
		}
		if r == '\\' {
			if n, nw := l.peekRune(); nw > 0 && (n == quote || n == '\\') {
				l.advance(n, nw)
				b.WriteRune(n)
				continue
			}
		}
		b.WriteRune(r)
	}
}

// tokenize lexes the whole query, ending with a tokEOF or the first tokIllegal.
func tokenize(src string) []token {
	l := newLexer(src)
	var toks []token
	for {
		t := l.next()
		toks = append(toks, t)
		if t.kind == tokEOF || t.kind == tokIllegal {
			return toks
		}
	}
}
