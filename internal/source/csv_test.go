package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCSVMissingMarkersAndPadding(t *testing.T) {
	data := strings.Join([]string{
		"id,city,score",
		"1,Paris,3.5",
		"2,NA,",
		"3,Lyon", // short row
		"4, Nice ,n/a",
	}, "\n")
	path := writeFile(t, "cities.csv", []byte(data))

	tbl, info, err := LoadFile(context.Background(), path, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if info.Rows != 4 || info.Loaded != 4 || info.Name != "cities.csv" {
		t.Fatalf("info = %#v", info)
	}
	if tbl.NumRows() != 4 || tbl.NumCols() != 3 {
		t.Fatalf("shape = %dx%d", tbl.NumRows(), tbl.NumCols())
	}
	city, _ := tbl.Column("city")
	if !city.Values[1].IsMissing() || city.Values[3].Str != "Nice" {
		t.Fatalf("city = %#v", city.Values)
	}
	score, _ := tbl.Column("score")
	if score.MissingCount() != 3 {
		t.Fatalf("score missing = %d, want 3", score.MissingCount())
	}
}

func TestLoadTSVAndMaxRows(t *testing.T) {
	data := "a\tb\n1\tx\n2\ty\n3\tz\n"
	path := writeFile(t, "data.tsv", []byte(data))
	opt := DefaultOptions()
	opt.MaxRows = 2
	tbl, info, err := LoadFile(context.Background(), path, opt)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if tbl.NumRows() != 2 || info.Rows != 3 || !info.Truncated() {
		t.Fatalf("rows = %d info = %#v", tbl.NumRows(), info)
	}
	if got := tbl.Names(); got[0] != "a" || got[1] != "b" {
		t.Fatalf("names = %#v", got)
	}
}

func TestLoadCSVLatin1(t *testing.T) {
	enc, err := charmap.ISO8859_1.NewEncoder().String("name;town\nJosé;Zürich\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := writeFile(t, "latin.csv", []byte(enc))
	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.Encoding = "latin1"
	tbl, _, err := LoadFile(context.Background(), path, opt)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	town, _ := tbl.Column("town")
	if town.Values[0].Str != "Zürich" {
		t.Fatalf("town = %q", town.Values[0].Str)
	}
}

func TestLoadCSVHeaderOnlyAndEmpty(t *testing.T) {
	tbl, _, err := LoadFile(context.Background(), writeFile(t, "h.csv", []byte("a,b\n")), DefaultOptions())
	if err != nil {
		t.Fatalf("header only: %v", err)
	}
	if tbl.NumCols() != 2 || tbl.NumRows() != 0 {
		t.Fatalf("shape = %dx%d", tbl.NumRows(), tbl.NumCols())
	}
	tbl, _, err = LoadFile(context.Background(), writeFile(t, "e.csv", nil), DefaultOptions())
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if tbl.NumCols() != 0 {
		t.Fatalf("cols = %d", tbl.NumCols())
	}
}

func TestLoadFileUnsupportedAndBadEncoding(t *testing.T) {
	_, _, err := LoadFile(context.Background(), writeFile(t, "x.parquet", []byte("x")), DefaultOptions())
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	opt := DefaultOptions()
	opt.Encoding = "ebcdic"
	_, _, err = LoadFile(context.Background(), writeFile(t, "x.csv", []byte("a\n1\n")), opt)
	if err == nil || !strings.Contains(err.Error(), "unsupported encoding") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadCSVCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := LoadFile(ctx, writeFile(t, "c.csv", []byte("a\n1\n")), DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
