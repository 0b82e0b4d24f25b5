package pipeline

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Step rewrites the values of one column (imputation, scaling).
type Step interface {
	Fit(vals []table.Value) error
	Apply(vals []table.Value) []table.Value
}

// Encoder turns one column into Width() feature columns.
type Encoder interface {
	Fit(vals []table.Value) error
	Width() int
	Names(col string) []string
	// Encode writes rows of vals into dst starting at column offset.
	Encode(vals []table.Value, dst *mat.Dense, offset int)
}

// MedianImputer replaces missing or non-numeric values with the fit median.
// String cells are read with Number.
type MedianImputer struct {
	Median float64
	Number table.NumberFormat
}

func (m *MedianImputer) Fit(vals []table.Value) error {
	xs := floats(vals, m.Number)
	if len(xs) == 0 {
		m.Median = 0
		return nil
	}
	sort.Float64s(xs)
	m.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	return nil
}

func (m *MedianImputer) Apply(vals []table.Value) []table.Value {
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		if f, ok := v.FloatWith(m.Number); ok {
			out[i] = table.Num(f)
		} else {
			out[i] = table.Num(m.Median)
		}
	}
	return out
}

// StandardScaler centers to zero mean and unit population variance. A
// zero-variance column is only centered.
type StandardScaler struct {
	Mean, Std float64
	Number    table.NumberFormat
}

func (s *StandardScaler) Fit(vals []table.Value) error {
	xs := floats(vals, s.Number)
	if len(xs) == 0 {
		s.Mean, s.Std = 0, 1
		return nil
	}
	s.Mean, s.Std = stat.PopMeanStdDev(xs, nil)
	if s.Std == 0 || math.IsNaN(s.Std) {
		s.Std = 1
	}
	return nil
}

func (s *StandardScaler) Apply(vals []table.Value) []table.Value {
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		if f, ok := v.FloatWith(s.Number); ok {
			out[i] = table.Num((f - s.Mean) / s.Std)
		}
	}
	return out
}

// MostFrequentImputer replaces missing values with the fit mode. Ties go to
// the lexically smallest value.
type MostFrequentImputer struct {
	Fill string
}

func (m *MostFrequentImputer) Fit(vals []table.Value) error {
	counts := make(map[string]int)
	for _, v := range vals {
		if !v.IsMissing() {
			counts[v.String()]++
		}
	}
	best, n := "", 0
	for k, c := range counts {
		if c > n || (c == n && k < best) {
			best, n = k, c
		}
	}
	m.Fill = best
	return nil
}

func (m *MostFrequentImputer) Apply(vals []table.Value) []table.Value {
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		if v.IsMissing() {
			out[i] = table.Str(m.Fill)
		} else {
			out[i] = table.Str(v.String())
		}
	}
	return out
}

// numericEncoder emits the value itself.
type numericEncoder struct{}

func (numericEncoder) Fit([]table.Value) error   { return nil }
func (numericEncoder) Width() int                { return 1 }
func (numericEncoder) Names(col string) []string { return []string{col} }

func (numericEncoder) Encode(vals []table.Value, dst *mat.Dense, offset int) {
	for i, v := range vals {
		f, _ := v.Float()
		dst.Set(i, offset, f)
	}
}

// OneHotEncoder emits one indicator per fit category plus a trailing bucket
// for categories first seen at transform time.
type OneHotEncoder struct {
	UnknownLabel string
	Categories   []string
	index        map[string]int
}

func (e *OneHotEncoder) Fit(vals []table.Value) error {
	seen := make(map[string]struct{})
	for _, v := range vals {
		if !v.IsMissing() {
			seen[v.String()] = struct{}{}
		}
	}
	e.Categories = make([]string, 0, len(seen))
	for k := range seen {
		e.Categories = append(e.Categories, k)
	}
	sort.Strings(e.Categories)
	e.index = make(map[string]int, len(e.Categories))
	for i, c := range e.Categories {
		e.index[c] = i
	}
	return nil
}

func (e *OneHotEncoder) Width() int { return len(e.Categories) + 1 }

func (e *OneHotEncoder) Names(col string) []string {
	out := make([]string, 0, e.Width())
	for _, c := range e.Categories {
		out = append(out, col+"="+c)
	}
	return append(out, col+"="+e.UnknownLabel)
}

func (e *OneHotEncoder) Encode(vals []table.Value, dst *mat.Dense, offset int) {
	for i, v := range vals {
		j, ok := e.index[v.String()]
		if v.IsMissing() || !ok {
			j = len(e.Categories)
		}
		dst.Set(i, offset+j, 1)
	}
}

// FrequencyEncoder replaces each value by its share of the fit rows. Values
// unseen at fit time encode as 0.
type FrequencyEncoder struct {
	UnknownLabel string
	Share        map[string]float64
}

func (e *FrequencyEncoder) key(v table.Value) string {
	if v.IsMissing() {
		return e.UnknownLabel
	}
	return v.String()
}

func (e *FrequencyEncoder) Fit(vals []table.Value) error {
	e.Share = make(map[string]float64)
	if len(vals) == 0 {
		return nil
	}
	for _, v := range vals {
		e.Share[e.key(v)]++
	}
	for k, n := range e.Share {
		e.Share[k] = n / float64(len(vals))
	}
	return nil
}

func (e *FrequencyEncoder) Width() int                { return 1 }
func (e *FrequencyEncoder) Names(col string) []string { return []string{col + "#freq"} }

func (e *FrequencyEncoder) Encode(vals []table.Value, dst *mat.Dense, offset int) {
	for i, v := range vals {
		dst.Set(i, offset, e.Share[e.key(v)])
	}
}

// HashingEncoder maps values into Buckets indicator columns with 32-bit
// FNV-1a. Missing values hash as UnknownLabel.
type HashingEncoder struct {
	UnknownLabel string
	Buckets      int
}

func (e *HashingEncoder) Fit([]table.Value) error {
	if e.Buckets <= 0 {
		return &ConfigurationError{Message: fmt.Sprintf("hash buckets must be positive, got %d", e.Buckets)}
	}
	return nil
}

func (e *HashingEncoder) Width() int { return e.Buckets }

func (e *HashingEncoder) Names(col string) []string {
	out := make([]string, e.Buckets)
	for i := range out {
		out[i] = fmt.Sprintf("%s#h%02d", col, i)
	}
	return out
}

// Bucket returns the column index for a raw value.
func (e *HashingEncoder) Bucket(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(e.Buckets))
}

func (e *HashingEncoder) Encode(vals []table.Value, dst *mat.Dense, offset int) {
	for i, v := range vals {
		s := v.String()
		if v.IsMissing() {
			s = e.UnknownLabel
		}
		dst.Set(i, offset+e.Bucket(s), 1)
	}
}

func floats(vals []table.Value, nf table.NumberFormat) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.FloatWith(nf); ok {
			out = append(out, f)
		}
	}
	return out
}
