package detect

import (
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Stats summarises one column for the rule table.
type Stats struct {
	Rows        int
	Missing     int
	Cardinality int // distinct non-missing values

	// Fractions are over non-missing values.
	NumericFrac float64
	DateFrac    float64
	// AllInteger is computed over the values that parse as numbers.
	AllInteger bool

	MeanWords  float64
	MeanLength float64
}

// Present is the number of non-missing values.
func (s Stats) Present() int { return s.Rows - s.Missing }

// MissingFrac is the missing share of all rows; an empty column counts as
// fully missing.
func (s Stats) MissingFrac() float64 {
	if s.Rows == 0 {
		return 1
	}
	return float64(s.Missing) / float64(s.Rows)
}

// FloatValued reports whether the column reads as non-integer numbers.
func (s Stats) FloatValued(cfg Config) bool {
	return s.Present() > 0 && s.NumericFrac >= cfg.NumericThreshold && !s.AllInteger
}

// Profile computes Stats for a column.
func Profile(col table.Column, nf table.NumberFormat) Stats {
	st := Stats{Rows: len(col.Values), AllInteger: true}
	distinct := make(map[string]struct{})
	var numeric, dates, texts int
	var words, length int
	for _, v := range col.Values {
		if v.IsMissing() {
			st.Missing++
			continue
		}
		key := v.String()
		distinct[key] = struct{}{}
		if f, ok := v.FloatWith(nf); ok {
			numeric++
			if !table.IsInteger(f) {
				st.AllInteger = false
			}
			continue
		}
		if v.Kind == table.KindString {
			if _, ok := table.ParseTime(v.Str); ok {
				dates++
			}
			texts++
			words += len(strings.Fields(v.Str))
			length += utf8.RuneCountInString(v.Str)
		}
	}
	st.Cardinality = len(distinct)
	if present := st.Present(); present > 0 {
		st.NumericFrac = float64(numeric) / float64(present)
		st.DateFrac = float64(dates) / float64(present)
	}
	if numeric == 0 {
		st.AllInteger = false
	}
	if texts > 0 {
		st.MeanWords = float64(words) / float64(texts)
		st.MeanLength = float64(length) / float64(texts)
	}
	return st
}
