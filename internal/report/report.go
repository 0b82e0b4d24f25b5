// Package report renders a compact Markdown diagnostic of one analysis run:
// the dataset summary, inferred schema, cleaning actions, synthesized
// features and rendered plots.
package report

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabloom-cli/internal/clean"
	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/pipeline"
	"github.com/KaramelBytes/tabloom-cli/internal/source"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
	"github.com/KaramelBytes/tabloom-cli/internal/viz"
)

// Input gathers the outputs of one run. Table and Types are the cleaned
// table and type map; every other field is optional.
type Input struct {
	Name   string
	Source source.Info
	Table  *table.Table
	Types  *detect.TypeMap

	Cleaning *clean.Report
	Features *pipeline.Fitted
	// FeatureErr explains why no features were built (e.g. no usable columns).
	FeatureErr error

	Figures      []viz.Figure
	PlotFailures []viz.Failure

	// SampleRows is the number of head rows shown; 0 means 5.
	SampleRows int
	// OutlierThreshold is the robust |z| above which a value counts as an
	// outlier; 0 means 3.5.
	OutlierThreshold float64
	Notes            []string
	// Number is the separator format used to read numeric string cells.
	Number table.NumberFormat
}

// Report is a markdown-friendly analysis of a typed, cleaned dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Target    string
	Cols      []ColumnSummary
	Cleaning  []clean.Action
	Branches  []pipeline.BranchSpec
	Width     int
	Plots     []viz.Figure
	Failures  []viz.Failure
	Corr      []PairCorr
	Samples   [][]string
	Warnings  []string
}

// ColumnSummary captures the inferred type and statistics of one column.
type ColumnSummary struct {
	Name       string
	Type       detect.ColumnType
	Underlying detect.ColumnType
	Rule       string
	Forced     bool
	NonNull    int
	Missing    int
	Unique     int
	// Numeric stats
	Min    float64
	Max    float64
	Mean   float64
	Std    float64
	Median float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
	// Date range
	First, Last string
}

type CategoryCount struct {
	Value string
	Count int
}

// PairCorr is a Pearson correlation between two numeric columns.
type PairCorr struct {
	A, B string
	R    float64
}

const (
	maxTopValues = 8
	maxExamples  = 3
	maxCorrPairs = 10
	minOutlierN  = 8
)

// Build summarizes in. It never fails; sections without input stay empty.
func Build(in Input) *Report {
	rep := &Report{
		Name:      in.Name,
		Rows:      in.Source.Rows,
		Processed: in.Source.Loaded,
		Plots:     in.Figures,
		Failures:  in.PlotFailures,
	}
	if in.Table != nil {
		rep.summarize(in)
	}
	if in.Types != nil {
		rep.Target = in.Types.Target()
	}
	if in.Cleaning != nil {
		rep.Cleaning = append(rep.Cleaning, in.Cleaning.Actions...)
	}
	if in.Features != nil {
		rep.Branches = in.Features.Branches()
		rep.Width = in.Features.Width()
	}

	if in.Source.Truncated() {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}
	if in.FeatureErr != nil {
		rep.Warnings = append(rep.Warnings, "no feature pipeline: "+in.FeatureErr.Error())
	}
	for _, f := range in.PlotFailures {
		rep.Warnings = append(rep.Warnings, f.Error())
	}
	rep.Warnings = append(rep.Warnings, in.Notes...)
	return rep
}

// summarize fills the per-column sections from the cleaned table.
func (rep *Report) summarize(in Input) {
	if rep.Rows == 0 {
		rep.Rows = in.Table.NumRows()
		rep.Processed = in.Table.NumRows()
	}
	thr := in.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	var numeric []string
	numVals := map[string][]float64{}
	for _, col := range in.Table.Columns() {
		s := ColumnSummary{Name: col.Name, Type: detect.Useless}
		if in.Types != nil {
			if e, ok := in.Types.Entry(col.Name); ok {
				s.Type, s.Underlying, s.Forced = e.Type, e.Underlying, e.Forced
				s.Rule = in.Types.Explain(col.Name)
			}
		}
		s.Missing = col.MissingCount()
		s.NonNull = col.Len() - s.Missing
		kind := s.Type
		if kind == detect.Target {
			kind = s.Underlying
		}
		switch kind {
		case detect.Continuous, detect.DirtyFloat, detect.LowCardInt:
			vals := floats(col, in.Number)
			summarizeNumeric(&s, vals, thr)
			s.Unique = distinct(col)
			if kind != detect.LowCardInt && len(vals) >= 2 {
				numeric = append(numeric, col.Name)
				numVals[col.Name] = rowFloats(col, in.Number)
			}
		case detect.Categorical, detect.HighCardCategorical:
			s.TopValues, s.Unique = topValues(col)
		case detect.FreeText:
			s.ExampleTexts = examples(col)
			s.Unique = distinct(col)
		case detect.Date:
			s.First, s.Last = dateRange(col)
			s.Unique = distinct(col)
		default:
			s.Unique = distinct(col)
		}
		rep.Cols = append(rep.Cols, s)
	}
	rep.Corr = correlations(numeric, numVals)

	n := in.SampleRows
	if n <= 0 {
		n = 5
	}
	rep.Samples = in.Table.Head(n)
}

func summarizeNumeric(s *ColumnSummary, vals []float64, thr float64) {
	if len(vals) == 0 {
		return
	}
	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if len(vals) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(vals, nil)
	} else {
		s.Mean = vals[0]
	}
	median, mad := medianMAD(vals)
	s.Median = median
	if len(vals) < minOutlierN {
		return
	}
	s.OutlierThreshold = thr
	if mad == 0 {
		return
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			s.OutliersCount++
		}
		s.OutliersMaxAbsZ = math.Max(s.OutliersMaxAbsZ, az)
	}
}

// floats returns the parseable non-missing values of col.
func floats(col table.Column, nf table.NumberFormat) []float64 {
	out := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if f, ok := v.FloatWith(nf); ok && !v.IsMissing() {
			out = append(out, f)
		}
	}
	return out
}

// rowFloats keeps row alignment; unusable cells are NaN.
func rowFloats(col table.Column, nf table.NumberFormat) []float64 {
	out := make([]float64, len(col.Values))
	for i, v := range col.Values {
		out[i] = math.NaN()
		if f, ok := v.FloatWith(nf); ok && !v.IsMissing() {
			out[i] = f
		}
	}
	return out
}

func distinct(col table.Column) int {
	seen := map[string]struct{}{}
	for _, v := range col.Values {
		if !v.IsMissing() {
			seen[v.String()] = struct{}{}
		}
	}
	return len(seen)
}

func topValues(col table.Column) ([]CategoryCount, int) {
	cats := map[string]int{}
	for _, v := range col.Values {
		if !v.IsMissing() {
			cats[v.String()]++
		}
	}
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > maxTopValues {
		tops = tops[:maxTopValues]
	}
	return tops, len(cats)
}

func examples(col table.Column) []string {
	var out []string
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		out = append(out, v.String())
		if len(out) == maxExamples {
			break
		}
	}
	return out
}

func dateRange(col table.Column) (first, last string) {
	var lo, hi int64
	found := false
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		ts, ok := table.ParseTime(v.String())
		if !ok {
			continue
		}
		u := ts.Unix()
		if !found || u < lo {
			lo, first = u, v.String()
		}
		if !found || u > hi {
			hi, last = u, v.String()
		}
		found = true
	}
	return first, last
}

// correlations returns the strongest pairs by |r| over complete rows.
func correlations(names []string, vals map[string][]float64) []PairCorr {
	var pairs []PairCorr
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			x, y := vals[names[i]], vals[names[j]]
			var xs, ys []float64
			for k := range x {
				if !math.IsNaN(x[k]) && !math.IsNaN(y[k]) {
					xs = append(xs, x[k])
					ys = append(ys, y[k])
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := stat.Correlation(xs, ys, nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			pairs = append(pairs, PairCorr{A: names[i], B: names[j], R: math.Max(-1, math.Min(1, r))})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if len(pairs) > maxCorrPairs {
		pairs = pairs[:maxCorrPairs]
	}
	return pairs
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
