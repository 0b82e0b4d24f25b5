package table

import (
	"strconv"
	"strings"
)

// Column is a named, ordered sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// Len returns the number of rows in the column.
func (c Column) Len() int { return len(c.Values) }

// MissingCount counts missing values.
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Table is an immutable, ordered collection of equal-length columns.
// Operations that change content return a new Table.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New validates and assembles a table. Column slices are shared, not copied;
// callers hand ownership over.
func New(cols ...Column) (*Table, error) {
	t := &Table{cols: make([]Column, 0, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, Inputf("", "column %d has an empty name", i+1)
		}
		if _, dup := t.index[name]; dup {
			return nil, Inputf(name, "duplicate column name")
		}
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, Inputf(name, "has %d rows, expected %d", len(c.Values), t.rows)
		}
		c.Name = name
		t.index[name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New that panics; intended for tests and literals.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a string table from a header and raw records. Short rows
// are padded with missing values and long rows are truncated to the header.
// Blank or repeated header names are replaced by positional names.
func FromRecords(header []string, rows [][]string, missing MissingSet) (*Table, error) {
	names := uniqueNames(header)
	cols := make([]Column, len(names))
	for j, name := range names {
		vals := make([]Value, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				vals[i] = missing.Cell(rec[j])
			}
		}
		cols[j] = Column{Name: name, Values: vals}
	}
	return New(cols...)
}

// uniqueNames trims header cells, names blank ones column_N and suffixes
// repeats with _2, _3, ... skipping suffixes already taken by another header.
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		names[i] = name
		taken[name] = true
	}
	used := make(map[string]bool, len(header))
	next := make(map[string]int, len(header))
	for i, name := range names {
		if used[name] {
			n := max(next[name], 2)
			for taken[name+"_"+strconv.Itoa(n)] || used[name+"_"+strconv.Itoa(n)] {
				n++
			}
			next[name] = n + 1
			name = name + "_" + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// NumRows returns the row count shared by all columns.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of name, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Column looks a column up by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) Column { return t.cols[i] }

// Columns returns a copy of the column headers; value slices are shared and
// must be treated as read-only.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// WithColumn returns a new table where the column named col.Name is replaced.
func (t *Table) WithColumn(col Column) (*Table, error) {
	i, ok := t.index[col.Name]
	if !ok {
		return nil, Inputf(col.Name, "unknown column")
	}
	cols := t.Columns()
	cols[i] = col
	return New(cols...)
}

// Rows returns a new table restricted to the given row indices, in order.
func (t *Table) Rows(idx []int) *Table {
	cols := make([]Column, len(t.cols))
	for j, c := range t.cols {
		vals := make([]Value, len(idx))
		for k, i := range idx {
			vals[k] = c.Values[i]
		}
		cols[j] = Column{Name: c.Name, Values: vals}
	}
	return &Table{cols: cols, index: t.index, rows: len(idx)}
}

// Head returns up to n rows rendered as strings, for previews.
func (t *Table) Head(n int) [][]string {
	n = min(n, t.rows)
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.cols))
		for j, c := range t.cols {
			row[j] = c.Values[i].String()
		}
		out[i] = row
	}
	return out
}

// Equal reports whether two tables have the same names and values.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for j := range t.cols {
		a, b := t.cols[j], o.cols[j]
		if a.Name != b.Name {
			return false
		}
		for i := range a.Values {
			if !a.Values[i].Equal(b.Values[i]) {
				return false
			}
		}
	}
	return true
}
