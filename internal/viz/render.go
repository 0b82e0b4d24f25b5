package viz

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// GonumRenderer writes each plot to Dir as NN_<kind>_<column>.<format>.
type GonumRenderer struct {
	Dir    string
	Config Config
}

func (g GonumRenderer) Render(s Spec, d Data) (Figure, error) {
	p := plot.New()
	p.Title.Text = title(s)
	var err error
	switch s.Kind {
	case Histogram:
		err = drawHistogram(p, s, d)
	case ValueCounts:
		err = drawValueCounts(p, s, d)
	case Scatter:
		err = drawScatter(p, s, d)
	case Box:
		err = drawBox(p, s, d)
	case ClassDensity:
		err = drawDensity(p, s, d)
	case StackedBar:
		err = drawStacked(p, s, d)
	default:
		err = fmt.Errorf("unknown plot kind %q", s.Kind)
	}
	if err != nil {
		return Figure{}, err
	}
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return Figure{}, fmt.Errorf("create plot dir: %w", err)
	}
	path := filepath.Join(g.Dir, FileName(s, g.format()))
	w, h := g.Config.Width, g.Config.Height
	if w <= 0 || h <= 0 {
		w, h = 4, 3
	}
	if err := p.Save(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, path); err != nil {
		return Figure{}, fmt.Errorf("save %s: %w", path, err)
	}
	return Figure{Spec: s, Path: path}, nil
}

func (g GonumRenderer) format() string {
	f := strings.TrimPrefix(strings.ToLower(g.Config.Format), ".")
	if f == "" {
		return "png"
	}
	return f
}

// FileName is the file written for s.
func FileName(s Spec, format string) string {
	return fmt.Sprintf("%02d_%s_%s.%s", s.Index+1, s.Kind, safeName(s.Column), format)
}

func safeName(s string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return '_'
	}, s)
	if out == "" {
		return "column"
	}
	return out
}

func title(s Spec) string {
	if s.Target == "" {
		return s.Column
	}
	return fmt.Sprintf("%s vs %s", s.Column, s.Target)
}

func drawHistogram(p *plot.Plot, s Spec, d Data) error {
	bins := s.Bins
	if bins <= 0 {
		bins = 30
	}
	h, err := plotter.NewHist(plotter.Values(d.Values), bins)
	if err != nil {
		return err
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	p.X.Label.Text = s.Column
	p.Y.Label.Text = "count"
	return nil
}

func drawValueCounts(p *plot.Plot, s Spec, d Data) error {
	bars, err := plotter.NewBarChart(plotter.Values(d.Counts), vg.Points(12))
	if err != nil {
		return err
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(d.Labels...)
	p.Y.Label.Text = "count"
	return nil
}

func drawScatter(p *plot.Plot, s Spec, d Data) error {
	pts := make(plotter.XYs, len(d.X))
	for i := range d.X {
		pts[i].X, pts[i].Y = d.X[i], d.Y[i]
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = plotutil.Color(0)
	sc.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(sc)
	p.X.Label.Text = s.Column
	p.Y.Label.Text = s.Target
	return nil
}

func drawBox(p *plot.Plot, s Spec, d Data) error {
	names := make([]string, len(d.Groups))
	for i, g := range d.Groups {
		b, err := plotter.NewBoxPlot(vg.Points(16), float64(i), plotter.Values(g.Values))
		if err != nil {
			return fmt.Errorf("box %q: %w", g.Label, err)
		}
		b.FillColor = plotutil.Color(i)
		p.Add(b)
		names[i] = g.Label
	}
	p.NominalX(names...)
	p.Y.Label.Text = s.Target
	return nil
}

func drawDensity(p *plot.Plot, s Spec, d Data) error {
	for i, g := range d.Groups {
		xs, ys := kde(g.Values, 100)
		pts := make(plotter.XYs, len(xs))
		for j := range xs {
			pts[j].X, pts[j].Y = xs[j], ys[j]
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("density %q: %w", g.Label, err)
		}
		l.LineStyle.Color = plotutil.Color(i)
		l.LineStyle.Dashes = plotutil.Dashes(i)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("%s=%s", s.Target, g.Label), l)
	}
	p.X.Label.Text = s.Column
	p.Y.Label.Text = "density"
	return nil
}

func drawStacked(p *plot.Plot, s Spec, d Data) error {
	var below *plotter.BarChart
	for k, class := range d.Classes {
		bars, err := plotter.NewBarChart(plotter.Values(d.Shares[k]), vg.Points(12))
		if err != nil {
			return fmt.Errorf("stack %q: %w", class, err)
		}
		bars.Color = plotutil.Color(k)
		if below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		p.Legend.Add(fmt.Sprintf("%s=%s", s.Target, class), bars)
		below = bars
	}
	p.NominalX(d.Categories...)
	p.Y.Label.Text = "share"
	return nil
}
