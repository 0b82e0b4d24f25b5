// Package pipeline synthesizes a fittable preprocessing pipeline from a
// TypeMap. Columns are grouped into branches by type; each branch has a fixed
// chain of steps and an encoder, and branch outputs are concatenated into one
// feature matrix.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// High-cardinality encodings.
const (
	EncodingFrequency = "frequency"
	EncodingHashing   = "hashing"
)

// Config selects encoders and their parameters.
type Config struct {
	HighCardEncoding string
	HashBuckets      int
	UnknownLabel     string
	// Number is the separator format string cells of numeric columns use.
	Number table.NumberFormat
}

// DefaultConfig returns frequency encoding with a 16-bucket hashing fallback.
func DefaultConfig() Config {
	return Config{HighCardEncoding: EncodingFrequency, HashBuckets: 16, UnknownLabel: "__unknown__"}
}

// ErrNoFeatures is wrapped by the ConfigurationError returned when every
// column is excluded from the pipeline.
var ErrNoFeatures = errors.New("no usable feature columns")

// ConfigurationError reports a pipeline that cannot be built as requested.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil && e.Message == "" {
		return "pipeline configuration: " + e.Err.Error()
	}
	return "pipeline configuration: " + e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// BranchKind names a pipeline branch.
type BranchKind string

const (
	NumericBranch     BranchKind = "numeric"
	CategoricalBranch BranchKind = "categorical"
	HighCardBranch    BranchKind = "high-cardinality"
)

// BranchSpec lists the columns routed to one branch, in table order.
type BranchSpec struct {
	Kind    BranchKind
	Columns []string
	Steps   []string
}

func (b BranchSpec) String() string {
	return fmt.Sprintf("%s [%s]: %s", b.Kind, strings.Join(b.Steps, " -> "), strings.Join(b.Columns, ", "))
}

// Pipeline is an unfitted plan. It holds column names only.
type Pipeline struct {
	branches []BranchSpec
	cfg      Config
}

// Build groups the feature columns of tm into branches: numeric, then
// categorical, then high-cardinality. free_text, date, useless and target
// columns are excluded. t may be nil; when given, every TypeMap column must
// exist in it.
func Build(t *table.Table, tm *detect.TypeMap, cfg Config) (*Pipeline, error) {
	switch cfg.HighCardEncoding {
	case EncodingFrequency:
	case EncodingHashing:
		if cfg.HashBuckets <= 0 {
			return nil, &ConfigurationError{Message: fmt.Sprintf("hash buckets must be positive, got %d", cfg.HashBuckets)}
		}
	default:
		return nil, &ConfigurationError{Message: fmt.Sprintf("unknown high-cardinality encoding %q (use frequency|hashing)", cfg.HighCardEncoding)}
	}
	if cfg.UnknownLabel == "" {
		cfg.UnknownLabel = DefaultConfig().UnknownLabel
	}
	if t != nil {
		for _, name := range tm.Names() {
			if t.Index(name) < 0 {
				return nil, table.Inputf(name, "column in type map but not in table")
			}
		}
	}

	high := []string{"frequency"}
	if cfg.HighCardEncoding == EncodingHashing {
		high = []string{fmt.Sprintf("hashing(%d)", cfg.HashBuckets)}
	}
	candidates := []BranchSpec{
		{Kind: NumericBranch, Columns: tm.Columns(detect.Continuous, detect.DirtyFloat), Steps: []string{"median-imputer", "standard-scaler"}},
		{Kind: CategoricalBranch, Columns: tm.Columns(detect.Categorical, detect.LowCardInt), Steps: []string{"most-frequent-imputer", "one-hot"}},
		{Kind: HighCardBranch, Columns: tm.Columns(detect.HighCardCategorical), Steps: high},
	}
	p := &Pipeline{cfg: cfg}
	for _, b := range candidates {
		if len(b.Columns) > 0 {
			p.branches = append(p.branches, b)
		}
	}
	if len(p.branches) == 0 {
		return nil, &ConfigurationError{Err: ErrNoFeatures}
	}
	return p, nil
}

// Branches returns the non-empty branches in output order.
func (p *Pipeline) Branches() []BranchSpec {
	out := make([]BranchSpec, len(p.branches))
	for i, b := range p.branches {
		b.Columns = append([]string(nil), b.Columns...)
		b.Steps = append([]string(nil), b.Steps...)
		out[i] = b
	}
	return out
}

// chain is the fitted processing of one column.
type chain struct {
	column string
	steps  []Step
	enc    Encoder
}

func (p *Pipeline) newChain(kind BranchKind, col string) chain {
	switch kind {
	case NumericBranch:
		return chain{column: col, steps: []Step{&MedianImputer{Number: p.cfg.Number}, &StandardScaler{Number: p.cfg.Number}}, enc: numericEncoder{}}
	case CategoricalBranch:
		return chain{column: col, steps: []Step{&MostFrequentImputer{}}, enc: &OneHotEncoder{UnknownLabel: p.cfg.UnknownLabel}}
	default:
		if p.cfg.HighCardEncoding == EncodingHashing {
			return chain{column: col, enc: &HashingEncoder{UnknownLabel: p.cfg.UnknownLabel, Buckets: p.cfg.HashBuckets}}
		}
		return chain{column: col, enc: &FrequencyEncoder{UnknownLabel: p.cfg.UnknownLabel}}
	}
}

// Fitted is a pipeline with learned parameters. It keeps no reference to the
// table it was fit on.
type Fitted struct {
	branches []BranchSpec
	chains   []chain
	names    []string
}

// Fit learns imputation, scaling and encoding parameters from t.
func (p *Pipeline) Fit(t *table.Table) (*Fitted, error) {
	if err := p.check(t); err != nil {
		return nil, err
	}
	f := &Fitted{branches: p.Branches()}
	for _, b := range p.branches {
		for _, col := range b.Columns {
			c := p.newChain(b.Kind, col)
			column, _ := t.Column(col)
			vals := column.Values
			for _, s := range c.steps {
				if err := s.Fit(vals); err != nil {
					return nil, fmt.Errorf("fit %s: %w", col, err)
				}
				vals = s.Apply(vals)
			}
			if err := c.enc.Fit(vals); err != nil {
				return nil, fmt.Errorf("fit %s: %w", col, err)
			}
			f.chains = append(f.chains, c)
			f.names = append(f.names, c.enc.Names(col)...)
		}
	}
	return f, nil
}

func (p *Pipeline) check(t *table.Table) error {
	for _, b := range p.branches {
		for _, col := range b.Columns {
			if t.Index(col) < 0 {
				return table.Inputf(col, "pipeline column not in table")
			}
		}
	}
	if t.NumRows() == 0 {
		return table.Inputf("", "table has no rows")
	}
	return nil
}

// Width is the number of output features.
func (f *Fitted) Width() int { return len(f.names) }

// FeatureNames returns output column names in matrix order.
func (f *Fitted) FeatureNames() []string { return append([]string(nil), f.names...) }

// Branches returns the branch layout the pipeline was fit with.
func (f *Fitted) Branches() []BranchSpec { return append([]BranchSpec(nil), f.branches...) }

// Transform applies the fitted pipeline. The result has one row per table row.
func (f *Fitted) Transform(t *table.Table) (*mat.Dense, error) {
	for _, c := range f.chains {
		if t.Index(c.column) < 0 {
			return nil, table.Inputf(c.column, "pipeline column not in table")
		}
	}
	if t.NumRows() == 0 {
		return nil, table.Inputf("", "table has no rows")
	}
	out := mat.NewDense(t.NumRows(), f.Width(), nil)
	offset := 0
	for _, c := range f.chains {
		column, _ := t.Column(c.column)
		vals := column.Values
		for _, s := range c.steps {
			vals = s.Apply(vals)
		}
		c.enc.Encode(vals, out, offset)
		offset += c.enc.Width()
	}
	return out, nil
}

// FitTransform fits on t and transforms it.
func (p *Pipeline) FitTransform(t *table.Table) (*Fitted, *mat.Dense, error) {
	f, err := p.Fit(t)
	if err != nil {
		return nil, nil, err
	}
	m, err := f.Transform(t)
	if err != nil {
		return nil, nil, err
	}
	return f, m, nil
}
