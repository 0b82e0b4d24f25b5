// Package clean applies type-directed cleaning rules to a table and returns
// the finalized TypeMap used by the pipeline and plot stages.
package clean

import (
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Config holds the cleaning thresholds.
type Config struct {
	// Columns with a missing share strictly above MissingCutoff become useless.
	MissingCutoff float64
	// A column whose most frequent value covers at least this share of
	// non-missing rows is annotated near-constant.
	NearConstantShare float64
	Number            table.NumberFormat
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MissingCutoff: 0.9, NearConstantShare: 0.99}
}

// Clean coerces dirty numeric columns, then flags mostly-missing columns and
// duplicates of earlier columns as useless. Hinted columns and the target are
// never re-flagged. The inputs are not modified.
func Clean(t *table.Table, tm *detect.TypeMap, cfg Config) (*table.Table, *detect.TypeMap, *Report, error) {
	if err := checkCoverage(t, tm); err != nil {
		return nil, nil, nil, err
	}
	cols := t.Columns()
	rep := &Report{}
	out := tm

	// dirty_float -> continuous
	for i, c := range cols {
		if out.Underlying(c.Name) != detect.DirtyFloat {
			continue
		}
		vals, lost := coerce(c.Values, cfg.Number)
		cols[i] = table.Column{Name: c.Name, Values: vals}
		next, err := out.Retype(c.Name, detect.Continuous, "coerced")
		if err != nil {
			return nil, nil, nil, err
		}
		out = next
		rep.add(Action{Column: c.Name, Kind: Coerced, From: detect.DirtyFloat, To: detect.Continuous, Coerced: lost})
	}

	// mostly missing -> useless
	for _, c := range cols {
		if exempt(out, c.Name) || isUseless(out, c.Name) {
			continue
		}
		share := missingShare(c)
		if share <= cfg.MissingCutoff {
			continue
		}
		from, _ := out.Type(c.Name)
		next, err := out.Retype(c.Name, detect.Useless, "mostly-missing")
		if err != nil {
			return nil, nil, nil, err
		}
		out = next
		rep.add(Action{Column: c.Name, Kind: Dropped, From: from, To: detect.Useless,
			Detail: fmt.Sprintf("mostly-missing (%.0f%% missing)", share*100)})
	}

	// duplicates of an earlier usable column -> useless
	seen := make(map[uint64][]int)
	for i, c := range cols {
		if isUseless(out, c.Name) {
			continue
		}
		h := fingerprint(c.Values)
		if !exempt(out, c.Name) {
			if j, ok := findDuplicate(cols, seen[h], c.Values); ok {
				from, _ := out.Type(c.Name)
				next, err := out.Retype(c.Name, detect.Useless, "duplicate")
				if err != nil {
					return nil, nil, nil, err
				}
				out = next
				rep.add(Action{Column: c.Name, Kind: Duplicate, From: from, To: detect.Useless, DuplicateOf: cols[j].Name})
				continue
			}
		}
		seen[h] = append(seen[h], i)
	}

	// annotation only
	for _, c := range cols {
		if isUseless(out, c.Name) || c.Name == out.Target() {
			continue
		}
		if share, value, ok := topShare(c.Values); ok && share >= cfg.NearConstantShare {
			ct, _ := out.Type(c.Name)
			rep.add(Action{Column: c.Name, Kind: NearConstant, From: ct, To: ct,
				Detail: fmt.Sprintf("%q covers %.1f%% of values", value, share*100)})
		}
	}

	cleaned, err := table.New(cols...)
	if err != nil {
		return nil, nil, nil, err
	}
	return cleaned, out, rep, nil
}

func checkCoverage(t *table.Table, tm *detect.TypeMap) error {
	if tm.Len() != t.NumCols() {
		return table.Inputf("", "type map has %d columns, table has %d", tm.Len(), t.NumCols())
	}
	for _, name := range t.Names() {
		if _, ok := tm.Type(name); !ok {
			return table.Inputf(name, "column missing from type map")
		}
	}
	return nil
}

func (r *Report) add(a Action) {
	slog.Debug("cleaning action", "column", a.Column, "kind", a.Kind, "from", a.From, "to", a.To)
	r.Actions = append(r.Actions, a)
}

func exempt(tm *detect.TypeMap, name string) bool {
	return tm.Forced(name) || name == tm.Target()
}

func isUseless(tm *detect.TypeMap, name string) bool {
	ct, _ := tm.Type(name)
	return ct == detect.Useless
}

// coerce converts every value to a number; unparseable values become missing.
func coerce(vals []table.Value, nf table.NumberFormat) ([]table.Value, int) {
	out := make([]table.Value, len(vals))
	lost := 0
	for i, v := range vals {
		if v.IsMissing() {
			continue
		}
		if f, ok := v.FloatWith(nf); ok {
			out[i] = table.Num(f)
			continue
		}
		lost++
	}
	return out, lost
}

func missingShare(c table.Column) float64 {
	if c.Len() == 0 {
		return 1
	}
	return float64(c.MissingCount()) / float64(c.Len())
}

func fingerprint(vals []table.Value) uint64 {
	h := fnv.New64a()
	for _, v := range vals {
		if v.IsMissing() {
			h.Write([]byte{1})
		} else {
			h.Write([]byte(v.String()))
		}
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func findDuplicate(cols []table.Column, candidates []int, vals []table.Value) (int, bool) {
	for _, j := range candidates {
		if sameContent(cols[j].Values, vals) {
			return j, true
		}
	}
	return 0, false
}

// sameContent compares rendered values so that a number and its textual
// spelling match; two missing values are equal.
func sameContent(a, b []table.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].IsMissing() != b[i].IsMissing() {
			return false
		}
		if !a[i].IsMissing() && a[i].String() != b[i].String() {
			return false
		}
	}
	return true
}

func topShare(vals []table.Value) (float64, string, bool) {
	counts := make(map[string]int)
	present := 0
	for _, v := range vals {
		if v.IsMissing() {
			continue
		}
		present++
		counts[v.String()]++
	}
	if present == 0 {
		return 0, "", false
	}
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return float64(bestN) / float64(present), best, true
}
