package hsl

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindDataSize
	KindDate
	KindInstant
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDataSize:
		return "data-size"
	case KindDate:
		return "date"
	case KindInstant:
		return "instant"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a typed literal. Only the field matching Kind is meaningful.
// Raw always holds the literal as written (without quotes).
type Value struct {
	Kind  ValueKind
	Raw   string
	Text  string    // KindString
	Bytes uint64    // KindDataSize
	Time  time.Time // KindDate (UTC midnight) and KindInstant (UTC)
}

// EpochMillis returns the instant of a date or instant value in milliseconds since the epoch.
func (v Value) EpochMillis() int64 {
	return v.Time.UnixMilli()
}

func (v Value) String() string {
	switch v.Kind {
	case KindDataSize:
		return strconv.FormatUint(v.Bytes, 10) + "b"
	case KindDate:
		return "'" + v.Time.Format(strfmt.RFC3339FullDate) + "'"
	case KindInstant:
		return "'" + v.Time.Format(strfmt.RFC3339Millis) + "'"
	default:
		return strconv.Quote(v.Text)
	}
}

// StringValue builds a text value.
func StringValue(text string) Value {
	return Value{Kind: KindString, Raw: text, Text: text}
}

// SizeValue builds a data-size value.
func SizeValue(raw string, bytes uint64) Value {
	return Value{Kind: KindDataSize, Raw: raw, Bytes: bytes}
}

// DateValue builds a calendar date value normalised to UTC midnight.
func DateValue(raw string, year int, month time.Month, day int) Value {
	return Value{Kind: KindDate, Raw: raw, Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// InstantValue builds an instant value.
func InstantValue(raw string, t time.Time) Value {
	return Value{Kind: KindInstant, Raw: raw, Time: t.UTC()}
}

var (
	errMalformedSize = errors.New("expected an integer followed by an optional unit (b, kb, mb, gb, tb)")
	errSizeOverflow  = errors.New("size does not fit in 64 bits")
	errMalformedTime = errors.New("expected an ISO-8601 instant, offset date-time or calendar date")
)

// sizeUnits are binary multiples keyed by lowercase suffix.
var sizeUnits = map[string]uint64{
	"":   1,
	"b":  1,
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
	"tb": 1 << 40,
}

// ParseDataSize parses "<integer>[unit]" where unit is one of b, kb, mb, gb, tb
// (case-insensitive, default bytes).
func ParseDataSize(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, errMalformedSize
	}
	n, err := strconv.ParseUint(s[:i], 10, 64)
	if err != nil {
		return 0, errSizeOverflow
	}
	unit := strings.ToLower(strings.TrimSpace(s[i:]))
	mult, ok := sizeUnits[unit]
	if !ok {
		return 0, errMalformedSize
	}
	hi, lo := bits.Mul64(n, mult)
	if hi != 0 {
		return 0, errSizeOverflow
	}
	return lo, nil
}

// timeForm is one accepted timestamp spelling, tried in declaration order.
type timeForm struct {
	kind  ValueKind
	parse func(string) (time.Time, bool)
}

var timeForms = []timeForm{
	{kind: KindInstant, parse: parseInstant},
	{kind: KindInstant, parse: parseOffsetDateTime},
	{kind: KindDate, parse: parseCalendarDate},
}

// parseInstant accepts a UTC instant such as 2020-01-17T10:15:30Z.
func parseInstant(s string) (time.Time, bool) {
	if !strings.HasSuffix(s, "Z") && !strings.HasSuffix(s, "z") {
		return time.Time{}, false
	}
	return parseOffsetDateTime(s)
}

// parseOffsetDateTime accepts a date-time carrying a zone offset such as 2020-01-17T10:15:30+01:00.
func parseOffsetDateTime(s string) (time.Time, bool) {
	if !hasZone(s) {
		return time.Time{}, false
	}
	dt, err := strfmt.ParseDateTime(s)
	if err != nil {
		return time.Time{}, false
	}
	return time.Time(dt), true
}

// hasZone reports whether the clock part of a date-time ends in Z or a ±hh:mm offset.
func hasZone(s string) bool {
	i := strings.IndexAny(s, "Tt")
	if i < 0 {
		return false
	}
	clock := s[i+1:]
	if strings.HasSuffix(clock, "Z") || strings.HasSuffix(clock, "z") {
		return true
	}
	j := strings.LastIndexAny(clock, "+-")
	return j >= 0 && len(clock)-j == 6 && clock[j+3] == ':'
}

func parseCalendarDate(s string) (time.Time, bool) {
	t, err := time.Parse(strfmt.RFC3339FullDate, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseTimestamp parses an instant, offset date-time or calendar date, in that order.
// Calendar dates resolve to UTC midnight.
func ParseTimestamp(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	for _, form := range timeForms {
		t, ok := form.parse(s)
		if !ok {
			continue
		}
		if form.kind == KindDate {
			return DateValue(raw, t.Year(), t.Month(), t.Day()), nil
		}
		return InstantValue(raw, t), nil
	}
	return Value{}, errMalformedTime
}

// typedValue interprets a raw literal according to the symbol it is compared with.
func typedValue(symbol Symbol, op Operator, raw string) (Value, error) {
	switch symbol {
	case SymbolSize:
		n, err := ParseDataSize(raw)
		if err != nil {
			return Value{}, &SemanticError{Symbol: symbol, Operator: op, Literal: raw, Reason: err.Error()}
		}
		return SizeValue(raw, n), nil
	case SymbolCreated, SymbolLastModified:
		v, err := ParseTimestamp(raw)
		if err != nil {
			return Value{}, &SemanticError{Symbol: symbol, Operator: op, Literal: raw, Reason: err.Error()}
		}
		return v, nil
	default:
		return StringValue(raw), nil
	}
}
