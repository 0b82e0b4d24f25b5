package report

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/clean"
	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/pipeline"
	"github.com/KaramelBytes/tabloom-cli/internal/source"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
	"github.com/KaramelBytes/tabloom-cli/internal/viz"
)

var csvRows = []string{
	"Group;Concentration (g/L);Temp (°F);Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

func TestBuildAndMarkdown(t *testing.T) {
	ctx := context.Background()
	tbl, info, err := source.ReadCSV(ctx, strings.NewReader(strings.Join(csvRows, "\n")), ';', source.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	info.Name = "sample.csv"
	tm, err := detect.Detect(tbl, nil, "Score", detect.DefaultConfig())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	ct, ctm, crep, err := clean.Clean(tbl, tm, clean.DefaultConfig())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	p, err := pipeline.Build(ct, ctm, pipeline.DefaultConfig())
	if err != nil {
		t.Fatalf("pipeline.Build: %v", err)
	}
	fitted, err := p.Fit(ct)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	figs, fails, err := viz.Dispatch(ct, ctm, "Score", viz.DefaultConfig(), &viz.Capture{})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	rep := Build(Input{
		Name:         info.Name,
		Source:       info,
		Table:        ct,
		Types:        ctm,
		Cleaning:     crep,
		Features:     fitted,
		Figures:      figs,
		PlotFailures: fails,
		SampleRows:   3,
	})
	if rep.Rows != 10 || len(rep.Cols) != 7 || len(rep.Samples) != 3 {
		t.Fatalf("rows=%d cols=%d samples=%d", rep.Rows, len(rep.Cols), len(rep.Samples))
	}
	var score ColumnSummary
	for _, c := range rep.Cols {
		if c.Name == "Score" {
			score = c
		}
	}
	if score.Type != detect.Target || score.Underlying != detect.Continuous {
		t.Fatalf("Score summary = %+v", score)
	}
	if score.OutliersCount != 1 || score.Max != 50 {
		t.Fatalf("Score outliers = %d, max = %v", score.OutliersCount, score.Max)
	}
	if len(rep.Corr) == 0 {
		t.Fatalf("expected correlations among numeric columns")
	}
	if rep.Width != fitted.Width() || len(rep.Branches) == 0 {
		t.Fatalf("features width=%d branches=%d", rep.Width, len(rep.Branches))
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "File: sample.csv", "Rows: 10", "Target: Score",
		"[SCHEMA]", "target(continuous)", "[FEATURES]", "[PLOTS]", "[CORRELATIONS]",
		"[HEAD AND SAMPLE ROWS]", "outliers: 1 above |z|>3.5",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	for _, name := range ct.Names() {
		if !strings.Contains(md, "- "+name+":") {
			t.Fatalf("schema does not mention %q", name)
		}
	}
}

func TestBuildNotes(t *testing.T) {
	rep := Build(Input{
		Name:       "big.csv",
		Source:     source.Info{Rows: 100, Loaded: 10},
		FeatureErr: errors.New("no usable feature columns"),
		Notes:      []string{"sheet 'Data' selected"},
	})
	md := rep.Markdown()
	for _, want := range []string{
		"Rows: ~100 (processed 10)",
		"- processed only 10/100 rows due to MaxRows",
		"- no feature pipeline: no usable feature columns",
		"- sheet 'Data' selected",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "[FEATURES]") || strings.Contains(md, "[PLOTS]") {
		t.Fatalf("empty sections rendered:\n%s", md)
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := medianMAD([]float64{100, 3, 1, 4, 2})
	if med != 3 || mad != 1 {
		t.Fatalf("median=%v mad=%v", med, mad)
	}
	if q := quantile([]float64{1, 2, 3, 4}, 0.5); q != 2.5 {
		t.Fatalf("quantile = %v", q)
	}
	if med, mad := medianMAD(nil); med != 0 || mad != 0 {
		t.Fatalf("empty: %v %v", med, mad)
	}
}

// A pinned decimal-comma format must reach every stage, not only detection:
// "1.000" is one thousand throughout.
func TestPinnedNumberFormatReachesEveryStage(t *testing.T) {
	nf := table.NumberFormat{Decimal: ',', Thousands: '.'}
	raw := []string{"1.000", "2", "3", "4", "5", "6", "7", "8", "9", "1.500", "2,5", "3,5"}
	want := []float64{1000, 2, 3, 4, 5, 6, 7, 8, 9, 1500, 2.5, 3.5}
	amount := table.Column{Name: "amount"}
	y := table.Column{Name: "y"}
	for i, r := range raw {
		amount.Values = append(amount.Values, table.Str(r))
		y.Values = append(y.Values, table.Num(want[i]))
	}
	tbl := table.MustNew(amount, y)

	dc := detect.DefaultConfig()
	dc.Number = nf
	tm, err := detect.Detect(tbl, nil, "y", dc)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if ct, _ := tm.Type("amount"); ct != detect.Continuous {
		t.Fatalf("amount detected as %s", ct)
	}
	cc := clean.DefaultConfig()
	cc.Number = nf
	ct, ctm, crep, err := clean.Clean(tbl, tm, cc)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	pc := pipeline.DefaultConfig()
	pc.Number = nf
	p, err := pipeline.Build(ct, ctm, pc)
	if err != nil {
		t.Fatalf("pipeline.Build: %v", err)
	}
	fitted, m, err := p.FitTransform(ct)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if names := fitted.FeatureNames(); len(names) != 1 || names[0] != "amount" {
		t.Fatalf("features = %v", names)
	}
	best := 0
	for i := 1; i < len(raw); i++ {
		if m.At(i, 0) > m.At(best, 0) {
			best = i
		}
	}
	if best != 9 || m.At(0, 0) <= 0 {
		t.Fatalf("scaled amount: argmax row %d, row0 %.3f; thousands separator ignored", best, m.At(0, 0))
	}

	vc := viz.DefaultConfig()
	vc.Number = nf
	specs, err := viz.Plan(ct, ctm, "y", vc)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(specs) != 1 || specs[0].Kind != viz.Scatter || math.Abs(specs[0].Score-1) > 1e-9 {
		t.Fatalf("specs = %+v", specs)
	}
	d, err := viz.Prepare(ct, specs[0], vc)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(d.X) != len(raw) || d.X[0] != 1000 {
		t.Fatalf("scatter x = %v", d.X)
	}

	rep := Build(Input{Name: "pinned", Table: ct, Types: ctm, Cleaning: crep, Features: fitted, Number: nf})
	var found bool
	for _, c := range rep.Cols {
		if c.Name != "amount" {
			continue
		}
		found = true
		if c.Max != 1500 || c.Min != 2 {
			t.Fatalf("amount summary min=%v max=%v", c.Min, c.Max)
		}
	}
	if !found {
		t.Fatalf("no summary for amount in %+v", rep.Cols)
	}
}
