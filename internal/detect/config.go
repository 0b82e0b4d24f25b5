package detect

import "github.com/KaramelBytes/tabloom-cli/internal/table"

// Config holds the inference thresholds. It is passed on every call; the
// package keeps no global settings.
type Config struct {
	// Share of non-missing values that must parse as numbers (or dates).
	NumericThreshold float64
	DateThreshold    float64

	// An all-integer column is low_card_int when its cardinality is at most
	// max(IntCardinalityCap, IntCardinalityRatio*rows).
	IntCardinalityCap   int
	IntCardinalityRatio float64

	// A string column is categorical when cardinality/rows < CategoricalRatio
	// and cardinality <= CategoricalCap.
	CategoricalRatio float64
	CategoricalCap   int

	// Above the categorical limits, values averaging at most TokenMaxWords
	// words and TokenMaxLength runes are high_card_categorical tokens.
	TokenMaxWords  float64
	TokenMaxLength float64

	// Tables with more than SampleThreshold rows are profiled on SampleSize
	// rows: a prefix, or a seeded random subset when SampleRandom is set.
	SampleThreshold int
	SampleSize      int
	SampleRandom    bool
	SampleSeed      uint64

	Number table.NumberFormat
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		NumericThreshold:    0.95,
		DateThreshold:       0.95,
		IntCardinalityCap:   42,
		IntCardinalityRatio: 0.01,
		CategoricalRatio:    0.9,
		CategoricalCap:      100,
		TokenMaxWords:       3,
		TokenMaxLength:      40,
		SampleThreshold:     100000,
		SampleSize:          20000,
	}
}

func (c Config) intCardinalityLimit(rows int) float64 {
	return max(float64(c.IntCardinalityCap), c.IntCardinalityRatio*float64(rows))
}
