package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindString
)

// Value is a single scalar cell: a number, a string, or the missing marker.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// Num wraps a float. NaN is stored as missing.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Kind: KindNumber, Num: f}
}

// Str wraps a string as-is; use a MissingSet to map markers like "NA" first.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Float returns the numeric reading of v. Strings are parsed leniently with the
// default NumberFormat.
func (v Value) Float() (float64, bool) {
	return v.FloatWith(NumberFormat{})
}

// FloatWith is Float with an explicit number format.
func (v Value) FloatWith(nf NumberFormat) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		return ParseNumber(v.Str, nf)
	default:
		return 0, false
	}
}

// String renders the value; missing renders as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// Equal compares kind and payload. Two missing values are equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	default:
		return true
	}
}

// MissingSet is the set of raw strings treated as missing when building a table
// from text records. Matching trims surrounding whitespace.
type MissingSet map[string]struct{}

// DefaultMissing returns the markers commonly found in exported CSVs.
func DefaultMissing() MissingSet {
	return NewMissingSet("", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "?", "-")
}

// NewMissingSet builds a set from markers.
func NewMissingSet(markers ...string) MissingSet {
	m := make(MissingSet, len(markers))
	for _, s := range markers {
		m[strings.TrimSpace(s)] = struct{}{}
	}
	return m
}

// Contains reports whether raw is a missing marker.
func (m MissingSet) Contains(raw string) bool {
	if m == nil {
		return strings.TrimSpace(raw) == ""
	}
	_, ok := m[strings.TrimSpace(raw)]
	return ok
}

// Cell converts a raw string into a Value, mapping markers to missing.
func (m MissingSet) Cell(raw string) Value {
	if m.Contains(raw) {
		return Missing()
	}
	return Str(strings.TrimSpace(raw))
}
