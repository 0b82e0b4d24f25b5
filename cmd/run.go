package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/tabloom-cli/internal/clean"
	cfgpkg "github.com/KaramelBytes/tabloom-cli/internal/config"
	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/pipeline"
	"github.com/KaramelBytes/tabloom-cli/internal/report"
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/KaramelBytes/tabloom-cli/internal/source"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
	"github.com/KaramelBytes/tabloom-cli/internal/utils"
	"github.com/KaramelBytes/tabloom-cli/internal/viz"
)

// loaderFlags are the dataset reading flags shared by file-based commands.
type loaderFlags struct {
	delimiter  string
	encoding   string
	maxRows    int
	sheetName  string
	sheetIndex int
	selector   string
	decimal    string
	thousands  string
}

func addLoaderFlags(fs *pflag.FlagSet, l *loaderFlags) {
	fs.StringVar(&l.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	fs.StringVar(&l.encoding, "encoding", "", "text encoding: utf-8|latin1|windows-1252|utf-16")
	fs.IntVar(&l.maxRows, "max-rows", 0, "maximum rows to load (0 = unlimited)")
	fs.StringVar(&l.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&l.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.StringVar(&l.selector, "selector", "table", "HTML: CSS selector of the table to read")
	fs.StringVar(&l.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&l.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
}

// options converts the flags into loader options and applies the number
// format overrides to c.
func (l loaderFlags) options(c *cfgpkg.Global) (source.Options, error) {
	opt := source.DefaultOptions()
	opt.Encoding = l.encoding
	opt.MaxRows = l.maxRows
	opt.Sheet = l.sheetName
	opt.SheetIndex = l.sheetIndex
	opt.Selector = l.selector
	opt.Missing = c.Missing()
	switch l.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", l.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(l.decimal)) {
	case ",", "comma":
		c.DecimalSeparator = ","
	case ".", "dot":
		c.DecimalSeparator = "."
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", l.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(l.thousands)) {
	case ",":
		c.ThousandsSeparator = ","
	case ".":
		c.ThousandsSeparator = "."
	case "space", " ":
		c.ThousandsSeparator = " "
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", l.thousands)
	}
	return opt, nil
}

// runFlags control what an analysis produces.
type runFlags struct {
	target     string
	hints      []string
	plotsDir   string
	maxPlots   int
	features   string
	output     string
	session    string
	sampleRows int
}

func addRunFlags(fs *pflag.FlagSet, r *runFlags) {
	fs.StringVarP(&r.target, "target", "t", "", "target column (plots relate features to it)")
	fs.StringArrayVar(&r.hints, "hint", nil, "force a column type: col=type (repeatable)")
	fs.StringVar(&r.plotsDir, "plots", "", "directory to write plots to")
	fs.IntVar(&r.maxPlots, "max-plots", 0, "maximum number of plots (overrides config)")
	fs.StringVar(&r.features, "features", "", "path to write the transformed feature matrix (CSV)")
	fs.StringVarP(&r.output, "output", "o", "", "optional path to write the report (Markdown)")
	fs.StringVarP(&r.session, "session", "s", "", "session name to read hints from and record the run in")
	fs.IntVar(&r.sampleRows, "sample-rows", 5, "number of head rows to include in the report")
}

// parseHintArgs turns col=type arguments into a hint map.
func parseHintArgs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		col, typ, ok := strings.Cut(a, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" || strings.TrimSpace(typ) == "" {
			return nil, fmt.Errorf("invalid --hint %q (use column=type)", a)
		}
		out[col] = strings.TrimSpace(typ)
	}
	return out, nil
}

// result is everything one analysis produced.
type result struct {
	Name       string
	Info       source.Info
	Table      *table.Table
	Types      *detect.TypeMap
	Cleaning   *clean.Report
	Fitted     *pipeline.Fitted
	Features   *mat.Dense
	FeatureErr error
	Figures    []viz.Figure
	Failures   []viz.Failure
	Report     *report.Report
}

// analysis runs detection, cleaning, feature synthesis and plotting over an
// already loaded table.
type analysis struct {
	cfg       *cfgpkg.Global
	run       runFlags
	hints     map[string]string
	transform bool
	plots     bool
}

func (a analysis) execute(t *table.Table, info source.Info) (*result, error) {
	hints, err := detect.ParseHints(a.hints)
	if err != nil {
		return nil, err
	}
	tm, err := detect.Detect(t, hints, a.run.target, a.cfg.Detect())
	if err != nil {
		return nil, err
	}
	ct, ctm, crep, err := clean.Clean(t, tm, a.cfg.Clean())
	if err != nil {
		return nil, err
	}
	res := &result{Name: info.Name, Info: info, Table: ct, Types: ctm, Cleaning: crep}

	p, err := pipeline.Build(ct, ctm, a.cfg.Pipeline())
	var cerr *pipeline.ConfigurationError
	switch {
	case errors.As(err, &cerr):
		res.FeatureErr = err
	case err != nil:
		return nil, err
	case a.transform:
		res.Fitted, res.Features, err = p.FitTransform(ct)
	default:
		res.Fitted, err = p.Fit(ct)
	}
	if err != nil && res.FeatureErr == nil {
		return nil, fmt.Errorf("fit pipeline: %w", err)
	}

	if a.plots {
		vc := a.cfg.Viz()
		if a.run.maxPlots > 0 {
			vc.MaxPlots = a.run.maxPlots
		}
		var r viz.Renderer = &viz.Capture{}
		if a.run.plotsDir != "" {
			r = viz.GonumRenderer{Dir: a.run.plotsDir, Config: vc}
		}
		res.Figures, res.Failures, err = viz.Dispatch(ct, ctm, a.run.target, vc, r)
		if err != nil {
			return nil, err
		}
	}

	res.Report = report.Build(report.Input{
		Name:         info.Name,
		Source:       info,
		Table:        ct,
		Types:        ctm,
		Cleaning:     crep,
		Features:     res.Fitted,
		FeatureErr:   res.FeatureErr,
		Figures:      res.Figures,
		PlotFailures: res.Failures,
		SampleRows:   a.run.sampleRows,
		Number:       a.cfg.Pipeline().Number,
	})
	return res, nil
}

// prepare resolves config, session and hints for a run. It returns the
// session, nil when none was requested. With discover set and no --session
// name, the session enclosing the working directory is used if there is one.
func prepare(run *runFlags, transform, plots, discover bool) (analysis, *session.Session, error) {
	c, err := currentConfig()
	if err != nil {
		return analysis{}, nil, err
	}
	local := *c
	hints, err := parseHintArgs(run.hints)
	if err != nil {
		return analysis{}, nil, err
	}
	var s *session.Session
	switch {
	case run.session != "":
		s, err = loadSession(&local, run.session)
	case discover:
		s, err = session.Find(".")
		if errors.Is(err, utils.ErrRootNotFound) {
			s, err = nil, nil
		}
	}
	if err != nil {
		return analysis{}, nil, err
	}
	if s != nil {
		merged := make(map[string]string, len(s.Hints)+len(hints))
		for k, v := range s.Hints {
			merged[k] = v
		}
		for k, v := range hints {
			merged[k] = v
		}
		hints = merged
		if run.target == "" {
			run.target = s.Target
		}
	}
	return analysis{cfg: &local, run: *run, hints: hints, transform: transform, plots: plots}, s, nil
}

func sessionsRoot(c *cfgpkg.Global) (string, error) {
	dir, err := utils.ExpandHome(c.SessionsDir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func loadSession(c *cfgpkg.Global, name string) (*session.Session, error) {
	root, err := sessionsRoot(c)
	if err != nil {
		return nil, err
	}
	return session.Load(filepath.Join(root, name))
}

// loadFile reads path with the loader flags applied to a.cfg.
func loadFile(ctx context.Context, a analysis, l loaderFlags, path string) (*table.Table, source.Info, error) {
	opt, err := l.options(a.cfg)
	if err != nil {
		return nil, source.Info{}, err
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, source.Info{}, err
	}
	return source.LoadFile(ctx, path, opt)
}

// deliver writes the report, the feature matrix and the session record.
func deliver(res *result, run runFlags, s *session.Session) error {
	md := res.Report.Markdown()
	written := false
	if run.output != "" {
		if err := os.WriteFile(run.output, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("✓ Wrote analysis to %s\n", run.output)
		written = true
	}
	if run.features != "" {
		if err := writeFeatures(run.features, res); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %d×%d feature matrix to %s\n", res.Table.NumRows(), res.Fitted.Width(), run.features)
	}
	if run.plotsDir != "" {
		fmt.Printf("✓ Rendered %d plots to %s\n", len(res.Figures), run.plotsDir)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", f)
	}
	if s != nil {
		outDir := filepath.Join(s.RootDir(), "reports")
		if err := utils.EnsureDir(outDir); err != nil {
			return err
		}
		outFile := filepath.Join(outDir, time.Now().Format("20060102-150405.000")+".md")
		if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
			return fmt.Errorf("write session report: %w", err)
		}
		r := session.Run{
			Dataset:  res.Name,
			Rows:     res.Table.NumRows(),
			Report:   outFile,
			Features: run.features,
			Warnings: len(res.Report.Warnings),
		}
		for _, f := range res.Figures {
			if f.Path != "" {
				r.Plots = append(r.Plots, f.Path)
			}
		}
		if res.Fitted != nil {
			r.Width = res.Fitted.Width()
		}
		s.AddRun(r)
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Recorded run in session '%s' (%s)\n", s.Name, filepath.Base(outFile))
		written = true
	}
	if !written {
		fmt.Println(md)
	}
	return nil
}

func writeFeatures(path string, res *result) error {
	if res.Fitted == nil || res.Features == nil {
		if res.FeatureErr != nil {
			return res.FeatureErr
		}
		return errors.New("no feature matrix was computed")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create features file: %w", err)
	}
	if err := pipeline.WriteCSV(f, res.Fitted.FeatureNames(), res.Features); err != nil {
		f.Close()
		return fmt.Errorf("write features: %w", err)
	}
	return f.Close()
}
