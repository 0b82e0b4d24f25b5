// Package detect infers a semantic ColumnType for every column of a table.
//
// Inference is a fixed, ordered rule table evaluated against per-column
// statistics; the first matching rule wins. Hints bypass inference, and a
// designated target is tagged after inference while its underlying type is
// kept for plot selection.
package detect

import (
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Detect builds the TypeMap for t. Hints force types for named columns; target
// names the column to tag as Target ("" for none). Malformed values never cause
// an error; unknown columns or invalid hint types do.
func Detect(t *table.Table, hints map[string]ColumnType, target string, cfg Config) (*TypeMap, error) {
	for name, ct := range hints {
		if t.Index(name) < 0 {
			return nil, table.Inputf(name, "hint names a column that is not in the table")
		}
		if !ct.Valid() {
			return nil, table.Inputf(name, "unknown forced type %q", string(ct))
		}
	}
	if target != "" && t.Index(target) < 0 {
		return nil, table.Inputf(target, "target column not found")
	}
	if target == "" {
		// A target hint designates the target when none is passed.
		for _, name := range t.Names() {
			if hints[name] == Target {
				target = name
				break
			}
		}
	}
	for name, ct := range hints {
		if ct == Target && name != target {
			return nil, table.Inputf(name, "hinted as target but target is %q", target)
		}
	}

	sample := sampleRows(t, cfg)
	entries := make([]Entry, 0, t.NumCols())
	for i, col := range sample.Columns() {
		name := t.ColumnAt(i).Name
		e := Entry{Name: name}
		if ct, ok := hints[name]; ok && ct != Target {
			e.Type, e.Rule, e.Forced = ct, "hint", true
		} else {
			st := Profile(col, cfg.Number)
			e.Type, e.Rule = Classify(st, cfg)
			slog.Debug("column classified", "column", name, "type", e.Type, "rule", e.Rule,
				"cardinality", st.Cardinality, "numeric_frac", st.NumericFrac)
		}
		e.Underlying = e.Type
		if name == target {
			e.Type = Target
			if _, hinted := hints[name]; hinted {
				e.Forced = true
			}
		}
		entries = append(entries, e)
	}
	return newTypeMap(entries, target), nil
}

// ParseHints converts textual hints (from flags or a saved session).
func ParseHints(raw map[string]string) (map[string]ColumnType, error) {
	out := make(map[string]ColumnType, len(raw))
	for name, s := range raw {
		ct, err := ParseColumnType(s)
		if err != nil {
			return nil, table.Inputf(name, "%v", err)
		}
		out[name] = ct
	}
	return out, nil
}

// sampleRows returns t itself or a subset of its rows when t exceeds the
// sampling threshold.
func sampleRows(t *table.Table, cfg Config) *table.Table {
	n := t.NumRows()
	if cfg.SampleThreshold <= 0 || cfg.SampleSize <= 0 || n <= cfg.SampleThreshold || cfg.SampleSize >= n {
		return t
	}
	var idx []int
	if cfg.SampleRandom {
		r := rand.New(rand.NewPCG(cfg.SampleSeed, cfg.SampleSeed^0x9e3779b97f4a7c15))
		idx = r.Perm(n)[:cfg.SampleSize]
		sort.Ints(idx)
	} else {
		idx = make([]int, cfg.SampleSize)
		for i := range idx {
			idx[i] = i
		}
	}
	slog.Debug("sampling rows for type detection", "rows", n, "sample", len(idx), "random", cfg.SampleRandom)
	return t.Rows(idx)
}

