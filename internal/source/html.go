package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

type htmlLoader struct{}

func (htmlLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm")
}

func (htmlLoader) Load(ctx context.Context, path string, opt Options) (*table.Table, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()
	t, info, err := ReadHTML(ctx, f, opt)
	info.Name = filepath.Base(path)
	return t, info, err
}

// ReadHTML reads the first <table> matching opt.Selector. Header cells come
// from <thead> when present, otherwise from the first row.
func ReadHTML(ctx context.Context, r io.Reader, opt Options) (*table.Table, Info, error) {
	dr, err := decodeReader(r, opt.Encoding)
	if err != nil {
		return nil, Info{}, err
	}
	doc, err := goquery.NewDocumentFromReader(dr)
	if err != nil {
		return nil, Info{}, fmt.Errorf("parse html: %w", err)
	}
	sel := opt.Selector
	if strings.TrimSpace(sel) == "" {
		sel = "table"
	}
	tbl := doc.Find(sel).First()
	if tbl.Length() == 0 {
		return nil, Info{}, fmt.Errorf("no element matches selector %q", sel)
	}

	var header []string
	tbl.Find("thead tr").First().Find("th,td").Each(func(_ int, s *goquery.Selection) {
		header = append(header, cellText(s))
	})
	var info Info
	var rows [][]string
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.ParentsFiltered("thead").Length() > 0 {
			return
		}
		var rec []string
		tr.Find("th,td").Each(func(_ int, s *goquery.Selection) {
			rec = append(rec, cellText(s))
		})
		if len(rec) == 0 {
			return
		}
		if header == nil {
			header = rec
			return
		}
		info.Rows++
		if opt.MaxRows > 0 && info.Loaded >= opt.MaxRows {
			return
		}
		info.Loaded++
		rows = append(rows, rec)
	})
	if err := ctx.Err(); err != nil {
		return nil, info, err
	}
	t, err := table.FromRecords(header, rows, opt.missing())
	if err != nil {
		return nil, info, err
	}
	return t, info, nil
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
