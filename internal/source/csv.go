package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvLoader) Load(ctx context.Context, path string, opt Options) (*table.Table, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	t, info, err := ReadCSV(ctx, f, delim, opt)
	info.Name = filepath.Base(path)
	return t, info, err
}

// ReadCSV reads a delimited stream with a header row.
func ReadCSV(ctx context.Context, r io.Reader, delim rune, opt Options) (*table.Table, Info, error) {
	dr, err := decodeReader(r, opt.Encoding)
	if err != nil {
		return nil, Info{}, err
	}
	cr := csv.NewReader(dr)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	if delim != 0 {
		cr.Comma = delim
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			t, _ := table.New()
			return t, Info{}, nil
		}
		return nil, Info{}, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)

	maxRows := opt.MaxRows
	var info Info
	var rows [][]string
	for {
		if info.Rows%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, info, err
			}
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, info, fmt.Errorf("read row %d: %w", info.Rows+1, err)
		}
		info.Rows++
		if maxRows > 0 && info.Loaded >= maxRows {
			continue
		}
		info.Loaded++
		rows = append(rows, rec)
	}
	t, err := table.FromRecords(header, rows, opt.missing())
	if err != nil {
		return nil, info, err
	}
	return t, info, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	// Filename heuristic only; avoids reading the file twice.
	return ','
}
