package viz

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Figure is one rendered plot.
type Figure struct {
	Spec Spec
	// Path is the written file; empty for headless renderers.
	Path string
}

// Failure records a plot that could not be prepared or rendered.
type Failure struct {
	Spec Spec
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("plot %d (%s of %s): %v", f.Spec.Index, f.Spec.Kind, f.Spec.Column, f.Err)
}

// Renderer draws one prepared plot.
type Renderer interface {
	Render(s Spec, d Data) (Figure, error)
}

// Dispatch plans and renders plots. A failing plot (error or panic) is
// recorded in the returned failures and does not stop the others; only an
// invalid request returns an error.
func Dispatch(t *table.Table, tm *detect.TypeMap, target string, cfg Config, r Renderer) ([]Figure, []Failure, error) {
	specs, err := Plan(t, tm, target, cfg)
	if err != nil {
		return nil, nil, err
	}
	figs := []Figure{}
	var failures []Failure
	for _, s := range specs {
		fig, err := renderOne(t, s, cfg, r)
		if err != nil {
			slog.Debug("plot failed", "index", s.Index, "kind", s.Kind, "column", s.Column, "error", err)
			failures = append(failures, Failure{Spec: s, Err: err})
			continue
		}
		figs = append(figs, fig)
	}
	return figs, failures, nil
}

func renderOne(t *table.Table, s Spec, cfg Config, r Renderer) (fig Figure, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render panic: %v", p)
		}
	}()
	d, err := Prepare(t, s, cfg)
	if err != nil {
		return Figure{}, err
	}
	if s.Kind == Scatter {
		s.SampleSize = len(d.X)
	}
	return r.Render(s, d)
}

// Capture is a headless Renderer that records what it was asked to draw.
type Capture struct {
	Specs []Spec
	Data  []Data
}

func (c *Capture) Render(s Spec, d Data) (Figure, error) {
	c.Specs = append(c.Specs, s)
	c.Data = append(c.Data, d)
	return Figure{Spec: s}, nil
}
