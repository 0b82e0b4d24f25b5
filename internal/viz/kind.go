package viz

import "github.com/KaramelBytes/tabloom-cli/internal/detect"

// Kind is the chart type chosen for a column (or column/target pair).
type Kind string

const (
	Histogram    Kind = "histogram"
	ValueCounts  Kind = "value-counts"
	Scatter      Kind = "scatter"
	Box          Kind = "box"
	ClassDensity Kind = "class-density"
	StackedBar   Kind = "stacked-bar"
)

// class is the coarse shape of a column as far as plotting is concerned.
type class uint8

const (
	none class = iota
	continuous
	categorical
)

func (c class) String() string {
	switch c {
	case continuous:
		return "continuous"
	case categorical:
		return "categorical"
	default:
		return "none"
	}
}

type pair struct {
	feature, target class
}

// kinds is the dispatch table from (feature class, target class) to chart.
var kinds = map[pair]Kind{
	{continuous, none}:         Histogram,
	{categorical, none}:        ValueCounts,
	{continuous, continuous}:   Scatter,
	{categorical, continuous}:  Box,
	{continuous, categorical}:  ClassDensity,
	{categorical, categorical}: StackedBar,
}

// featureClass classifies a feature column. free_text, date and useless
// columns are only plotted when forced by a hint.
func featureClass(ct detect.ColumnType, forced bool) (class, bool) {
	switch ct {
	case detect.Continuous, detect.DirtyFloat:
		return continuous, true
	case detect.Categorical, detect.LowCardInt, detect.HighCardCategorical:
		return categorical, true
	case detect.Date:
		return continuous, forced
	case detect.FreeText, detect.Useless:
		return categorical, forced
	default:
		return none, false
	}
}

// targetClass decides regression-style (continuous) or classification-style
// (categorical) plots from the target's underlying type.
func targetClass(ct detect.ColumnType) class {
	switch ct {
	case detect.Continuous, detect.DirtyFloat, detect.Date:
		return continuous
	default:
		return categorical
	}
}

// KindFor returns the chart for a feature type and an optional target type
// ("" for no target). ok is false for types that are never plotted.
func KindFor(feature detect.ColumnType, forced bool, target detect.ColumnType) (Kind, bool) {
	fc, ok := featureClass(feature, forced)
	if !ok {
		return "", false
	}
	tc := none
	if target != "" {
		tc = targetClass(target)
	}
	k, ok := kinds[pair{fc, tc}]
	return k, ok
}
