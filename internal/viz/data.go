package viz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// OtherLabel collects categories beyond TopN.
const OtherLabel = "other"

// Group is a labelled set of values (a box or a density curve).
type Group struct {
	Label  string
	Values []float64
}

// Data is the prepared input of one plot. Only the fields used by the plot
// kind are set.
type Data struct {
	// histogram
	Values []float64
	// value-counts
	Labels []string
	Counts []float64
	// scatter
	X, Y []float64
	// box (ranked by target mean) and class-density (one group per class)
	Groups []Group
	// stacked-bar: Shares[k][j] is the share of class k within category j;
	// each category sums to 1.
	Categories []string
	Classes    []string
	Shares     [][]float64
}

var errNoData = errors.New("no plottable values")

// Prepare extracts and shapes the data for s.
func Prepare(t *table.Table, s Spec, cfg Config) (Data, error) {
	f, ok := t.Column(s.Column)
	if !ok {
		return Data{}, table.Inputf(s.Column, "unknown column")
	}
	var y table.Column
	if s.Target != "" {
		if y, ok = t.Column(s.Target); !ok {
			return Data{}, table.Inputf(s.Target, "target column not found")
		}
	}
	var d Data
	switch s.Kind {
	case Histogram:
		d.Values = finiteOnly(readFloats(f, s.FeatureType, cfg.Number))
		if len(d.Values) == 0 {
			return d, errNoData
		}
	case ValueCounts:
		d.Labels, d.Counts = topCounts(readLabels(f), s.TopN)
		if len(d.Labels) == 0 {
			return d, errNoData
		}
	case Scatter:
		x, yv := readFloats(f, s.FeatureType, cfg.Number), readFloats(y, s.TargetType, cfg.Number)
		for i := range x {
			if finite(x[i]) && finite(yv[i]) {
				d.X = append(d.X, x[i])
				d.Y = append(d.Y, yv[i])
			}
		}
		if len(d.X) == 0 {
			return d, errNoData
		}
		d.X, d.Y = subsample(d.X, d.Y, cfg)
	case Box:
		d.Groups = groupBy(readLabels(f), readFloats(y, s.TargetType, cfg.Number))
		sort.SliceStable(d.Groups, func(i, j int) bool {
			return stat.Mean(d.Groups[i].Values, nil) > stat.Mean(d.Groups[j].Values, nil)
		})
		d.Groups = capGroups(d.Groups, s.TopN)
		if len(d.Groups) == 0 {
			return d, errNoData
		}
	case ClassDensity:
		d.Groups = groupBy(readLabels(y), readFloats(f, s.FeatureType, cfg.Number))
		sort.SliceStable(d.Groups, func(i, j int) bool { return len(d.Groups[i].Values) > len(d.Groups[j].Values) })
		d.Groups = capGroups(d.Groups, s.TopN)
		if len(d.Groups) == 0 {
			return d, errNoData
		}
	case StackedBar:
		d.Categories, d.Classes, d.Shares = crossShares(readLabels(f), readLabels(y), s.TopN)
		if len(d.Categories) == 0 {
			return d, errNoData
		}
	default:
		return d, fmt.Errorf("unknown plot kind %q", s.Kind)
	}
	return d, nil
}

func finiteOnly(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if finite(x) {
			out = append(out, x)
		}
	}
	return out
}

type labelCount struct {
	label string
	n     float64
}

func countLabels(labels []string) []labelCount {
	counts := make(map[string]float64)
	for _, l := range labels {
		if l != "" {
			counts[l]++
		}
	}
	out := make([]labelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, labelCount{l, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].label < out[j].label
	})
	return out
}

// topCounts returns the topN most frequent labels and, when more exist, an
// OtherLabel bucket holding the remainder.
func topCounts(labels []string, topN int) ([]string, []float64) {
	lc := countLabels(labels)
	var names []string
	var counts []float64
	var rest float64
	for i, c := range lc {
		if topN > 0 && i >= topN {
			rest += c.n
			continue
		}
		names = append(names, c.label)
		counts = append(counts, c.n)
	}
	if rest > 0 {
		names = append(names, OtherLabel)
		counts = append(counts, rest)
	}
	return names, counts
}

// groupBy splits values by label, keeping first-seen label order.
func groupBy(labels []string, values []float64) []Group {
	idx := make(map[string]int)
	var groups []Group
	for i, l := range labels {
		if l == "" || !finite(values[i]) {
			continue
		}
		j, ok := idx[l]
		if !ok {
			j = len(groups)
			idx[l] = j
			groups = append(groups, Group{Label: l})
		}
		groups[j].Values = append(groups[j].Values, values[i])
	}
	return groups
}

func capGroups(groups []Group, topN int) []Group {
	if topN > 0 && len(groups) > topN {
		return groups[:topN]
	}
	return groups
}

// crossShares builds the per-category class distribution. Categories and
// classes beyond topN fold into OtherLabel.
func crossShares(feature, target []string, topN int) ([]string, []string, [][]float64) {
	cats := foldLabels(feature, topN)
	classes := foldLabels(target, topN)
	catIdx := indexOf(cats)
	classIdx := indexOf(classes)
	shares := make([][]float64, len(classes))
	for k := range shares {
		shares[k] = make([]float64, len(cats))
	}
	totals := make([]float64, len(cats))
	for i := range feature {
		if feature[i] == "" || target[i] == "" {
			continue
		}
		j := lookup(catIdx, feature[i])
		k := lookup(classIdx, target[i])
		shares[k][j]++
		totals[j]++
	}
	for k := range shares {
		for j := range shares[k] {
			if totals[j] > 0 {
				shares[k][j] /= totals[j]
			}
		}
	}
	return cats, classes, shares
}

func foldLabels(labels []string, topN int) []string {
	names, _ := topCounts(labels, topN)
	return names
}

func indexOf(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}

func lookup(idx map[string]int, label string) int {
	if i, ok := idx[label]; ok {
		return i
	}
	return idx[OtherLabel]
}

// subsample keeps cfg.ScatterSample random points when there are more than
// cfg.ScatterThreshold. The draw is seeded, so repeated calls agree.
func subsample(x, y []float64, cfg Config) ([]float64, []float64) {
	if cfg.ScatterThreshold <= 0 || len(x) <= cfg.ScatterThreshold || cfg.ScatterSample <= 0 || cfg.ScatterSample >= len(x) {
		return x, y
	}
	r := rand.New(rand.NewPCG(cfg.SampleSeed, cfg.SampleSeed^0x5851f42d4c957f2d))
	idx := r.Perm(len(x))[:cfg.ScatterSample]
	sort.Ints(idx)
	sx := make([]float64, len(idx))
	sy := make([]float64, len(idx))
	for i, j := range idx {
		sx[i], sy[i] = x[j], y[j]
	}
	return sx, sy
}
