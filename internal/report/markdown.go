package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
)

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Rows > 0 {
		if r.Processed > 0 && r.Processed < r.Rows {
			b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", r.Rows, r.Processed))
		} else {
			b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
		}
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	if r.Target != "" {
		b.WriteString(fmt.Sprintf("Target: %s\n", safeName(r.Target)))
	}
	b.WriteString("\n")

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		writeColumn(&b, c)
	}

	if len(r.Cleaning) > 0 {
		b.WriteString("\n[CLEANING]\n")
		for _, a := range r.Cleaning {
			b.WriteString("- ")
			b.WriteString(safeVal(a.String()))
			b.WriteString("\n")
		}
	}

	if len(r.Branches) > 0 {
		b.WriteString("\n[FEATURES]\n")
		for _, br := range r.Branches {
			b.WriteString(fmt.Sprintf("- %s\n", safeVal(br.String())))
		}
		b.WriteString(fmt.Sprintf("Width: %d\n", r.Width))
	}

	if len(r.Plots) > 0 {
		b.WriteString("\n[PLOTS]\n")
		for _, f := range r.Plots {
			s := f.Spec
			line := fmt.Sprintf("- %02d %s: %s", s.Index+1, s.Kind, safeName(s.Column))
			if s.Target != "" {
				line += fmt.Sprintf(" vs %s (score %.3f)", safeName(s.Target), s.Score)
			}
			if s.SampleSize > 0 {
				line += fmt.Sprintf(", sampled %d points", s.SampleSize)
			}
			if f.Path != "" {
				line += fmt.Sprintf(" -> %s", filepath.Base(f.Path))
			}
			b.WriteString(line + "\n")
		}
	}

	if len(r.Corr) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(safeName(c.Name)))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(safeVal(w))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeColumn(b *strings.Builder, c ColumnSummary) {
	total := c.NonNull + c.Missing
	missPct := 0.0
	if total > 0 {
		missPct = float64(c.Missing) * 100.0 / float64(total)
	}
	typ := string(c.Type)
	if c.Type == detect.Target {
		typ = fmt.Sprintf("target(%s)", c.Underlying)
	}
	how := c.Rule
	if c.Forced {
		how = "hint"
	}
	b.WriteString(fmt.Sprintf("- %s: %s [%s] (non-null %d, missing %.1f%%, unique %d)",
		safeName(c.Name), typ, how, c.NonNull, missPct, c.Unique))
	kind := c.Type
	if kind == detect.Target {
		kind = c.Underlying
	}
	switch kind {
	case detect.Continuous, detect.DirtyFloat, detect.LowCardInt:
		if c.NonNull == 0 {
			break
		}
		b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g",
			c.Min, c.Max, c.Mean, c.Median, c.Std))
		if c.OutlierThreshold > 0 {
			b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
			if c.OutliersMaxAbsZ > 0 {
				b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
			}
		}
	case detect.Categorical, detect.HighCardCategorical:
		if len(c.TopValues) > 0 {
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
	case detect.FreeText:
		if len(c.ExampleTexts) > 0 {
			b.WriteString(" — e.g., ")
			for i, ex := range c.ExampleTexts {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(ex))
			}
		}
	case detect.Date:
		if c.First != "" {
			b.WriteString(fmt.Sprintf(" — from %s to %s", safeVal(c.First), safeVal(c.Last)))
		}
	}
	b.WriteString("\n")
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
