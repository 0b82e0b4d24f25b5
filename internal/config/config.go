package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabloom-cli/internal/clean"
	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/pipeline"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
	"github.com/KaramelBytes/tabloom-cli/internal/viz"
)

// Global configuration structure. Keys are flat so that every threshold can
// be overridden from the environment (TABLOOM_MAX_PLOTS=5).
type Global struct {
	// Type inference
	NumericThreshold    float64 `mapstructure:"numeric_threshold" yaml:"numeric_threshold"`
	DateThreshold       float64 `mapstructure:"date_threshold" yaml:"date_threshold"`
	IntCardinalityCap   int     `mapstructure:"int_cardinality_cap" yaml:"int_cardinality_cap"`
	IntCardinalityRatio float64 `mapstructure:"int_cardinality_ratio" yaml:"int_cardinality_ratio"`
	CategoricalRatio    float64 `mapstructure:"categorical_ratio" yaml:"categorical_ratio"`
	CategoricalCap      int     `mapstructure:"categorical_cap" yaml:"categorical_cap"`
	TokenMaxWords       float64 `mapstructure:"token_max_words" yaml:"token_max_words"`
	TokenMaxLength      float64 `mapstructure:"token_max_length" yaml:"token_max_length"`
	SampleThreshold     int     `mapstructure:"sample_threshold" yaml:"sample_threshold"`
	SampleSize          int     `mapstructure:"sample_size" yaml:"sample_size"`
	SampleRandom        bool    `mapstructure:"sample_random" yaml:"sample_random"`
	SampleSeed          uint64  `mapstructure:"sample_seed" yaml:"sample_seed"`

	// Number parsing; empty separators auto-detect per value.
	DecimalSeparator   string   `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string   `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	MissingMarkers     []string `mapstructure:"missing_markers" yaml:"missing_markers"`

	// Cleaning
	MissingCutoff     float64 `mapstructure:"missing_cutoff" yaml:"missing_cutoff"`
	NearConstantShare float64 `mapstructure:"near_constant_share" yaml:"near_constant_share"`

	// Pipeline
	HighCardEncoding string `mapstructure:"high_card_encoding" yaml:"high_card_encoding"`
	HashBuckets      int    `mapstructure:"hash_buckets" yaml:"hash_buckets"`

	// Plots
	MaxPlots         int     `mapstructure:"max_plots" yaml:"max_plots"`
	TopN             int     `mapstructure:"top_n" yaml:"top_n"`
	Bins             int     `mapstructure:"bins" yaml:"bins"`
	ScatterThreshold int     `mapstructure:"scatter_threshold" yaml:"scatter_threshold"`
	ScatterSample    int     `mapstructure:"scatter_sample" yaml:"scatter_sample"`
	PlotFormat       string  `mapstructure:"plot_format" yaml:"plot_format"`
	PlotWidth        float64 `mapstructure:"plot_width" yaml:"plot_width"`
	PlotHeight       float64 `mapstructure:"plot_height" yaml:"plot_height"`

	SessionsDir string `mapstructure:"sessions_dir" yaml:"sessions_dir"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format"`
}

func setDefaults(v *viper.Viper) {
	d := detect.DefaultConfig()
	v.SetDefault("numeric_threshold", d.NumericThreshold)
	v.SetDefault("date_threshold", d.DateThreshold)
	v.SetDefault("int_cardinality_cap", d.IntCardinalityCap)
	v.SetDefault("int_cardinality_ratio", d.IntCardinalityRatio)
	v.SetDefault("categorical_ratio", d.CategoricalRatio)
	v.SetDefault("categorical_cap", d.CategoricalCap)
	v.SetDefault("token_max_words", d.TokenMaxWords)
	v.SetDefault("token_max_length", d.TokenMaxLength)
	v.SetDefault("sample_threshold", d.SampleThreshold)
	v.SetDefault("sample_size", d.SampleSize)
	v.SetDefault("sample_random", d.SampleRandom)
	v.SetDefault("sample_seed", d.SampleSeed)
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("missing_markers", []string{})

	c := clean.DefaultConfig()
	v.SetDefault("missing_cutoff", c.MissingCutoff)
	v.SetDefault("near_constant_share", c.NearConstantShare)

	p := pipeline.DefaultConfig()
	v.SetDefault("high_card_encoding", p.HighCardEncoding)
	v.SetDefault("hash_buckets", p.HashBuckets)

	z := viz.DefaultConfig()
	v.SetDefault("max_plots", z.MaxPlots)
	v.SetDefault("top_n", z.TopN)
	v.SetDefault("bins", z.Bins)
	v.SetDefault("scatter_threshold", z.ScatterThreshold)
	v.SetDefault("scatter_sample", z.ScatterSample)
	v.SetDefault("plot_format", z.Format)
	v.SetDefault("plot_width", z.Width)
	v.SetDefault("plot_height", z.Height)

	v.SetDefault("sessions_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Dir returns ~/.tabloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabloom"), nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.tabloom/config.yaml) > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABLOOM")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.SessionsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.SessionsDir = filepath.Join(dir, "sessions")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Global) Validate() error {
	if _, err := c.NumberFormat(); err != nil {
		return err
	}
	switch c.HighCardEncoding {
	case pipeline.EncodingFrequency:
	case pipeline.EncodingHashing:
		if c.HashBuckets <= 0 {
			return fmt.Errorf("invalid hash_buckets: %d (must be positive with hashing encoding)", c.HashBuckets)
		}
	default:
		return fmt.Errorf("invalid high_card_encoding: %s (use frequency or hashing)", c.HighCardEncoding)
	}
	if c.MaxPlots <= 0 {
		return fmt.Errorf("invalid max_plots: %d (must be positive)", c.MaxPlots)
	}
	for _, f := range []struct {
		key string
		val float64
	}{
		{"numeric_threshold", c.NumericThreshold},
		{"date_threshold", c.DateThreshold},
		{"missing_cutoff", c.MissingCutoff},
		{"near_constant_share", c.NearConstantShare},
	} {
		if f.val < 0 || f.val > 1 {
			return fmt.Errorf("invalid %s: %v (must be within [0, 1])", f.key, f.val)
		}
	}
	return nil
}

// NumberFormat returns the configured decimal and thousands separators; a
// zero rune means auto-detect.
func (c *Global) NumberFormat() (table.NumberFormat, error) {
	var nf table.NumberFormat
	for _, sep := range []struct {
		key string
		val string
		dst *rune
	}{
		{"decimal_separator", c.DecimalSeparator, &nf.Decimal},
		{"thousands_separator", c.ThousandsSeparator, &nf.Thousands},
	} {
		r := []rune(sep.val)
		switch len(r) {
		case 0:
		case 1:
			*sep.dst = r[0]
		default:
			return nf, fmt.Errorf("invalid %s: %q (single character expected)", sep.key, sep.val)
		}
	}
	return nf, nil
}

// Missing returns the configured missing markers, or the defaults.
func (c *Global) Missing() table.MissingSet {
	if len(c.MissingMarkers) == 0 {
		return table.DefaultMissing()
	}
	return table.NewMissingSet(c.MissingMarkers...)
}

// Detect converts the inference settings.
func (c *Global) Detect() detect.Config {
	nf, _ := c.NumberFormat()
	return detect.Config{
		NumericThreshold:    c.NumericThreshold,
		DateThreshold:       c.DateThreshold,
		IntCardinalityCap:   c.IntCardinalityCap,
		IntCardinalityRatio: c.IntCardinalityRatio,
		CategoricalRatio:    c.CategoricalRatio,
		CategoricalCap:      c.CategoricalCap,
		TokenMaxWords:       c.TokenMaxWords,
		TokenMaxLength:      c.TokenMaxLength,
		SampleThreshold:     c.SampleThreshold,
		SampleSize:          c.SampleSize,
		SampleRandom:        c.SampleRandom,
		SampleSeed:          c.SampleSeed,
		Number:              nf,
	}
}

// Clean converts the cleaning settings.
func (c *Global) Clean() clean.Config {
	nf, _ := c.NumberFormat()
	return clean.Config{MissingCutoff: c.MissingCutoff, NearConstantShare: c.NearConstantShare, Number: nf}
}

// Pipeline converts the encoder settings.
func (c *Global) Pipeline() pipeline.Config {
	p := pipeline.DefaultConfig()
	p.HighCardEncoding = c.HighCardEncoding
	p.HashBuckets = c.HashBuckets
	p.Number, _ = c.NumberFormat()
	return p
}

// Viz converts the plot settings.
func (c *Global) Viz() viz.Config {
	z := viz.DefaultConfig()
	z.MaxPlots = c.MaxPlots
	z.TopN = c.TopN
	z.Bins = c.Bins
	z.ScatterThreshold = c.ScatterThreshold
	z.ScatterSample = c.ScatterSample
	z.SampleSeed = c.SampleSeed
	z.Format = c.PlotFormat
	z.Width = c.PlotWidth
	z.Height = c.PlotHeight
	z.Number, _ = c.NumberFormat()
	return z
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	v := viper.New()
	setDefaults(v)
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Set parses val and assigns it to key.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	parseFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		*dst = f
		return nil
	}
	parseInt := func(dst *int) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = i
		return nil
	}
	var err error
	switch key {
	case "numeric_threshold":
		err = parseFloat(&c.NumericThreshold)
	case "date_threshold":
		err = parseFloat(&c.DateThreshold)
	case "int_cardinality_cap":
		err = parseInt(&c.IntCardinalityCap)
	case "int_cardinality_ratio":
		err = parseFloat(&c.IntCardinalityRatio)
	case "categorical_ratio":
		err = parseFloat(&c.CategoricalRatio)
	case "categorical_cap":
		err = parseInt(&c.CategoricalCap)
	case "token_max_words":
		err = parseFloat(&c.TokenMaxWords)
	case "token_max_length":
		err = parseFloat(&c.TokenMaxLength)
	case "sample_threshold":
		err = parseInt(&c.SampleThreshold)
	case "sample_size":
		err = parseInt(&c.SampleSize)
	case "sample_random":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		c.SampleRandom = b
	case "sample_seed":
		u, perr := strconv.ParseUint(val, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid seed for %s: %v", key, val)
		}
		c.SampleSeed = u
	case "decimal_separator":
		c.DecimalSeparator = val
	case "thousands_separator":
		c.ThousandsSeparator = val
	case "missing_markers":
		c.MissingMarkers = nil
		for _, m := range strings.Split(val, ",") {
			c.MissingMarkers = append(c.MissingMarkers, strings.TrimSpace(m))
		}
	case "missing_cutoff":
		err = parseFloat(&c.MissingCutoff)
	case "near_constant_share":
		err = parseFloat(&c.NearConstantShare)
	case "high_card_encoding":
		c.HighCardEncoding = strings.ToLower(val)
	case "hash_buckets":
		err = parseInt(&c.HashBuckets)
	case "max_plots":
		err = parseInt(&c.MaxPlots)
	case "top_n":
		err = parseInt(&c.TopN)
	case "bins":
		err = parseInt(&c.Bins)
	case "scatter_threshold":
		err = parseInt(&c.ScatterThreshold)
	case "scatter_sample":
		err = parseInt(&c.ScatterSample)
	case "plot_format":
		c.PlotFormat = strings.ToLower(val)
	case "plot_width":
		err = parseFloat(&c.PlotWidth)
	case "plot_height":
		err = parseFloat(&c.PlotHeight)
	case "sessions_dir":
		c.SessionsDir = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	return c.Validate()
}
