// Package source loads raw tabular data (CSV/TSV, XLSX, HTML tables, SQL
// result sets) into table.Table values. Every loader produces string cells
// with missing markers applied; typing is left to the detect package.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Options controls how raw files are read.
type Options struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Encoding of text inputs: "utf-8" (default), "latin1", "windows-1252", "utf-16".
	Encoding string
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// XLSX sheet selection. SheetIndex is 1-based and used when Sheet is empty.
	Sheet      string
	SheetIndex int
	// Selector picks the HTML table; defaults to "table".
	Selector string
	// Missing markers; nil means table.DefaultMissing().
	Missing table.MissingSet
}

// DefaultOptions returns options suited to typical exports.
func DefaultOptions() Options {
	return Options{SheetIndex: 1, Selector: "table", Missing: table.DefaultMissing()}
}

func (o Options) missing() table.MissingSet {
	if o.Missing == nil {
		return table.DefaultMissing()
	}
	return o.Missing
}

// Info describes what a loader read.
type Info struct {
	Name   string
	Rows   int // rows present in the source
	Loaded int // rows kept after MaxRows
}

// Truncated reports whether MaxRows dropped rows.
func (i Info) Truncated() bool { return i.Loaded < i.Rows }

// Loader reads one family of file formats.
type Loader interface {
	CanLoad(path string) bool
	Load(ctx context.Context, path string, opt Options) (*table.Table, Info, error)
}

var registry []Loader

// Register adds a loader; later registrations do not override earlier ones.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no loader accepts the file.
var ErrUnsupported = errors.New("unsupported dataset format")

// LoadFile picks a loader by file name and reads the table.
func LoadFile(ctx context.Context, path string, opt Options) (*table.Table, Info, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, Info{}, fmt.Errorf("stat dataset: %w", err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(ctx, path, opt)
		}
	}
	return nil, Info{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(htmlLoader{})
}
