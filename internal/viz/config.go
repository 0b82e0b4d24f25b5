package viz

import "github.com/KaramelBytes/tabloom-cli/internal/table"

// Config bounds how many plots are produced and how much data each shows.
type Config struct {
	MaxPlots int
	// TopN caps categories in value counts, box groups, target classes and
	// stacked bars.
	TopN int
	Bins int
	// Scatter plots above ScatterThreshold points are subsampled to
	// ScatterSample points using SampleSeed.
	ScatterThreshold int
	ScatterSample    int
	SampleSeed       uint64

	// Figure size in inches and output format (png, svg, pdf, ...).
	Width, Height float64
	Format        string

	// Number is the separator format numeric columns were detected with.
	Number table.NumberFormat
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxPlots:         20,
		TopN:             10,
		Bins:             30,
		ScatterThreshold: 2000,
		ScatterSample:    2000,
		SampleSeed:       42,
		Width:            4,
		Height:           3,
		Format:           "png",
	}
}
