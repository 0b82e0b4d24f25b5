// Package viz selects and renders plots for each feature and each
// feature/target pair. Plot kinds come from a lookup table keyed by the
// (feature, target) class pair; with a target, features are ranked by their
// association with it before the MaxPlots budget is applied.
package viz

import (
	"math"
	"sort"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Spec describes one plot.
type Spec struct {
	Index       int               `json:"index"`
	Kind        Kind              `json:"kind"`
	Column      string            `json:"column"`
	Target      string            `json:"target,omitempty"`
	FeatureType detect.ColumnType `json:"feature_type"`
	TargetType  detect.ColumnType `json:"target_type,omitempty"`
	// Score is the relevance to the target; 0 without a target.
	Score      float64 `json:"score"`
	Bins       int     `json:"bins,omitempty"`
	TopN       int     `json:"top_n,omitempty"`
	SampleSize int     `json:"sample_size,omitempty"`
}

// Columns returns the plotted columns: the feature, then the target if any.
func (s Spec) Columns() []string {
	if s.Target == "" {
		return []string{s.Column}
	}
	return []string{s.Column, s.Target}
}

// Plan selects plottable columns, scores them against target ("" for none)
// and keeps the cfg.MaxPlots most relevant. Without a target, table order is
// kept. A table without eligible columns yields an empty plan.
func Plan(t *table.Table, tm *detect.TypeMap, target string, cfg Config) ([]Spec, error) {
	if cfg.MaxPlots <= 0 {
		return nil, table.Inputf("", "max plots must be positive, got %d", cfg.MaxPlots)
	}
	for _, name := range tm.Names() {
		if t.Index(name) < 0 {
			return nil, table.Inputf(name, "column in type map but not in table")
		}
	}
	var tType detect.ColumnType
	tc := none
	if target != "" {
		if t.Index(target) < 0 {
			return nil, table.Inputf(target, "target column not found")
		}
		tType = tm.Underlying(target)
		tc = targetClass(tType)
	}

	specs := []Spec{}
	for _, name := range tm.Names() {
		ct, _ := tm.Type(name)
		if name == target || ct == detect.Target {
			continue
		}
		forced := tm.Forced(name)
		kind, ok := KindFor(ct, forced, tType)
		if !ok {
			continue
		}
		s := Spec{
			Kind:        kind,
			Column:      name,
			Target:      target,
			FeatureType: ct,
			TargetType:  tType,
			Bins:        cfg.Bins,
			TopN:        cfg.TopN,
		}
		if tc != none {
			fc, _ := featureClass(ct, forced)
			s.Score = relevance(t, name, ct, fc, target, tType, tc, cfg.Number)
		}
		specs = append(specs, s)
	}
	if tc != none {
		sort.SliceStable(specs, func(i, j int) bool { return specs[i].Score > specs[j].Score })
	}
	if len(specs) > cfg.MaxPlots {
		specs = specs[:cfg.MaxPlots]
	}
	for i := range specs {
		specs[i].Index = i
	}
	return specs, nil
}

func relevance(t *table.Table, name string, ct detect.ColumnType, fc class, target string, tt detect.ColumnType, tc class, nf table.NumberFormat) float64 {
	f, _ := t.Column(name)
	y, _ := t.Column(target)
	var score float64
	switch (pair{fc, tc}) {
	case pair{continuous, continuous}:
		score = pearson(readFloats(f, ct, nf), readFloats(y, tt, nf))
	case pair{categorical, continuous}:
		score = correlationRatio(readLabels(f), readFloats(y, tt, nf))
	case pair{continuous, categorical}:
		score = correlationRatio(readLabels(y), readFloats(f, ct, nf))
	case pair{categorical, categorical}:
		score = cramersV(readLabels(f), readLabels(y))
	}
	if math.IsNaN(score) {
		return 0
	}
	return score
}

// readFloats returns one float per row; missing or unparseable values are
// NaN. Date columns are read as days since the Unix epoch.
func readFloats(col table.Column, ct detect.ColumnType, nf table.NumberFormat) []float64 {
	out := make([]float64, len(col.Values))
	for i, v := range col.Values {
		out[i] = math.NaN()
		if v.IsMissing() {
			continue
		}
		if ct == detect.Date && v.Kind == table.KindString {
			if ts, ok := table.ParseTime(v.Str); ok {
				out[i] = float64(ts.Unix()) / 86400
			}
			continue
		}
		if f, ok := v.FloatWith(nf); ok {
			out[i] = f
		}
	}
	return out
}

// readLabels renders every value; missing values become "".
func readLabels(col table.Column) []string {
	out := make([]string, len(col.Values))
	for i, v := range col.Values {
		out[i] = v.String()
	}
	return out
}
