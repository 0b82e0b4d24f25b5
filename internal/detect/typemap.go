package detect

import "github.com/KaramelBytes/tabloom-cli/internal/table"

// Entry is the decision recorded for one column.
type Entry struct {
	Name string     `yaml:"name" json:"name"`
	Type ColumnType `yaml:"type" json:"type"`
	// Underlying is the type decided before target tagging; equal to Type for
	// every other column.
	Underlying ColumnType `yaml:"underlying,omitempty" json:"underlying,omitempty"`
	// Rule names the decision source: a rule name, "hint", or a cleaning step.
	Rule   string `yaml:"rule" json:"rule"`
	Forced bool   `yaml:"forced,omitempty" json:"forced,omitempty"`
}

// TypeMap is the ordered column → type mapping for one table. A TypeMap is
// never modified after it is returned; Retype produces a copy.
type TypeMap struct {
	entries []Entry
	index   map[string]int
	target  string
}

func newTypeMap(entries []Entry, target string) *TypeMap {
	tm := &TypeMap{entries: entries, index: make(map[string]int, len(entries)), target: target}
	for i, e := range entries {
		tm.index[e.Name] = i
	}
	return tm
}

// Len returns the number of columns.
func (tm *TypeMap) Len() int { return len(tm.entries) }

// Names returns column names in table order.
func (tm *TypeMap) Names() []string {
	out := make([]string, len(tm.entries))
	for i, e := range tm.entries {
		out[i] = e.Name
	}
	return out
}

// Entries returns a copy of all decisions in table order.
func (tm *TypeMap) Entries() []Entry {
	out := make([]Entry, len(tm.entries))
	copy(out, tm.entries)
	return out
}

// Entry returns the decision for name.
func (tm *TypeMap) Entry(name string) (Entry, bool) {
	i, ok := tm.index[name]
	if !ok {
		return Entry{}, false
	}
	return tm.entries[i], true
}

// Type returns the type of name.
func (tm *TypeMap) Type(name string) (ColumnType, bool) {
	e, ok := tm.Entry(name)
	return e.Type, ok
}

// Underlying returns the pre-target type for name.
func (tm *TypeMap) Underlying(name string) ColumnType {
	e, _ := tm.Entry(name)
	if e.Underlying != "" {
		return e.Underlying
	}
	return e.Type
}

// Target returns the designated target column, or "".
func (tm *TypeMap) Target() string { return tm.target }

// Forced reports whether name was set by a hint.
func (tm *TypeMap) Forced(name string) bool {
	e, _ := tm.Entry(name)
	return e.Forced
}

// Explain returns the rule that produced the decision for name.
func (tm *TypeMap) Explain(name string) string {
	e, _ := tm.Entry(name)
	return e.Rule
}

// Columns returns the names whose type is one of types, in table order.
func (tm *TypeMap) Columns(types ...ColumnType) []string {
	var out []string
	for _, e := range tm.entries {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e.Name)
				break
			}
		}
	}
	return out
}

// Clone returns an independent copy.
func (tm *TypeMap) Clone() *TypeMap {
	return newTypeMap(tm.Entries(), tm.target)
}

// Retype returns a copy with name set to t. The rule records why.
// Retyping the target changes its underlying type and keeps the target tag.
func (tm *TypeMap) Retype(name string, t ColumnType, rule string) (*TypeMap, error) {
	i, ok := tm.index[name]
	if !ok {
		return nil, table.Inputf(name, "unknown column")
	}
	if !t.Valid() {
		return nil, table.Inputf(name, "invalid column type %q", t)
	}
	out := tm.Clone()
	e := &out.entries[i]
	if name == tm.target {
		e.Underlying = t
	} else {
		e.Type = t
		e.Underlying = t
	}
	e.Rule = rule
	return out, nil
}

// Equal compares names, types, underlying types and the target.
func (tm *TypeMap) Equal(o *TypeMap) bool {
	if tm.target != o.target || len(tm.entries) != len(o.entries) {
		return false
	}
	for i, e := range tm.entries {
		f := o.entries[i]
		if e.Name != f.Name || e.Type != f.Type || tm.Underlying(e.Name) != o.Underlying(f.Name) {
			return false
		}
	}
	return true
}
