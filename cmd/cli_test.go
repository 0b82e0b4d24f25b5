package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/KaramelBytes/tabloom-cli/internal/source"
)

// resetFlags restores every flag of c and its subcommands to its default so
// that package-level flag variables do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	cfg = nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// writeDataset writes a small mixed-type CSV and returns its path.
func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,city,qty,price,label\n")
	cities := []string{"Paris", "Lyon", "Nice"}
	for i := 0; i < 40; i++ {
		label := "no"
		if i%3 == 0 {
			label = "yes"
		}
		fmt.Fprintf(&b, "%d,%s,%.2f,%.2f,%s\n", i+1, cities[i%3], float64(i)*1.37+0.11, 10+float64(i%7)*2.5+float64(i)/10, label)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestCLI_AnalyzeWritesReportPlotsAndFeatures(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := writeDataset(t, home)
	plots := filepath.Join(home, "plots")
	features := filepath.Join(home, "features.csv")
	out := filepath.Join(home, "report.md")

	runCmd(t, "analyze", data, "--target", "price", "--plots", plots, "--features", features, "-o", out)

	md, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"[DATASET SUMMARY]", "[SCHEMA]", "[FEATURES]", "[PLOTS]", "- city:", "Target: price"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("report missing %q", want)
		}
	}
	entries, err := os.ReadDir(plots)
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected plots in %s (err=%v)", plots, err)
	}
	fb, err := os.ReadFile(features)
	if err != nil {
		t.Fatalf("read features: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(fb)), "\n")
	if len(lines) != 41 {
		t.Fatalf("feature rows = %d, want header + 40", len(lines))
	}
	if !strings.Contains(lines[0], "qty") || strings.Contains(lines[0], "price") {
		t.Fatalf("unexpected feature header: %s", lines[0])
	}
}

func TestCLI_AnalyzeRejectsBadHint(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := writeDataset(t, home)
	if err := execCmd("analyze", data, "--hint", "city=bogus"); err == nil {
		t.Fatalf("expected error for unknown column type")
	}
	if err := execCmd("analyze", data, "--hint", "city"); err == nil {
		t.Fatalf("expected error for hint without type")
	}
	if err := execCmd("analyze", data, "--target", "nope"); err == nil {
		t.Fatalf("expected error for unknown target")
	}
}

func TestCLI_AnalyzeSQL(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ctx := context.Background()
	dsn := filepath.Join(home, "shop.db")
	db, err := source.OpenDB(ctx, "sqlite", dsn)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE sales (region TEXT, amount REAL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 30; i++ {
		region := []string{"north", "south"}[i%2]
		if _, err := db.ExecContext(ctx, `INSERT INTO sales VALUES (?, ?)`, region, float64(i)*3.3+1); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	_ = db.Close()

	out := filepath.Join(home, "sql.md")
	runCmd(t, "analyze-sql", "--dsn", dsn, "--query", "SELECT region, amount FROM sales", "--target", "amount", "-o", out)
	md, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(md), "Rows: 30") || !strings.Contains(string(md), "- region:") {
		t.Fatalf("unexpected report:\n%s", md)
	}

	if err := execCmd("analyze-sql", "--dsn", dsn); err == nil {
		t.Fatalf("expected error without --query")
	}
}

func TestCLI_AnalyzeBatchDuplicateBasenames(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	a := writeDataset(t, filepath.Join(home, "a"))
	b := writeDataset(t, filepath.Join(home, "b"))
	outDir := filepath.Join(home, "out")

	runCmd(t, "analyze-batch", a, b, filepath.Join(home, "a", "*.csv"), "--out-dir", outDir, "--jobs", "2", "--quiet")

	for _, name := range []string{"data.report.md", "data__2.report.md"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	entries, _ := os.ReadDir(outDir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 reports (glob duplicate removed), got %d", len(entries))
	}

	if err := execCmd("analyze-batch", filepath.Join(home, "missing-*.csv"), "--out-dir", outDir); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
}

func TestCLI_SessionFlow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := writeDataset(t, home)

	runCmd(t, "session", "init", "shop", data, "--target", "label")
	if err := execCmd("session", "init", "shop", data); err == nil {
		t.Fatalf("expected error re-initializing an existing session")
	}
	runCmd(t, "session", "hint", "shop", "qty=Free-Text")
	if err := execCmd("session", "hint", "shop", "qty=bogus"); err == nil {
		t.Fatalf("expected error for invalid hint type")
	}
	runCmd(t, "session", "hint", "shop", "city=categorical")
	runCmd(t, "session", "hint", "shop", "city", "--clear")
	runCmd(t, "analyze", "--session", "shop")

	dir := filepath.Join(home, ".tabloom", "sessions", "shop")
	s, err := session.Load(dir)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if s.Target != "label" || s.Hints["qty"] != "free_text" {
		t.Fatalf("session = %+v", s)
	}
	if _, ok := s.Hints["city"]; ok {
		t.Fatalf("city hint should have been cleared")
	}
	r, ok := s.LastRun()
	if !ok || r.Rows != 40 {
		t.Fatalf("last run = %+v, ok=%v", r, ok)
	}
	md, err := os.ReadFile(r.Report)
	if err != nil {
		t.Fatalf("read session report: %v", err)
	}
	if !strings.Contains(string(md), "- qty: free_text [hint]") {
		t.Fatalf("hint not applied in report:\n%s", md)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)
	runCmd(t, "session", "list")
	if !strings.Contains(buf.String(), "- shop: data.csv (1 runs)") {
		t.Fatalf("unexpected list output: %q", buf.String())
	}
}

func TestCLI_AnalyzeDiscoversSessionFromWorkingDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := writeDataset(t, home)
	runCmd(t, "session", "init", "shop", data, "--target", "label")
	runCmd(t, "session", "hint", "shop", "qty=free_text")

	dir := filepath.Join(home, ".tabloom", "sessions", "shop")
	nested := filepath.Join(dir, "scratch")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(nested)
	runCmd(t, "analyze")

	s, err := session.Load(dir)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	r, ok := s.LastRun()
	if !ok || r.Rows != 40 {
		t.Fatalf("last run = %+v, ok=%v", r, ok)
	}
	md, err := os.ReadFile(r.Report)
	if err != nil {
		t.Fatalf("read session report: %v", err)
	}
	if !strings.Contains(string(md), "- qty: free_text [hint]") {
		t.Fatalf("session hint not applied:\n%s", md)
	}
}

func TestCLI_TypesYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := writeDataset(t, home)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)
	runCmd(t, "types", data, "--target", "label", "--hint", "qty=free_text")

	var got struct {
		Target  string `yaml:"target"`
		Columns []struct {
			Name   string `yaml:"name"`
			Type   string `yaml:"type"`
			Rule   string `yaml:"rule"`
			Forced bool   `yaml:"forced"`
		} `yaml:"columns"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("parse yaml: %v\n%s", err, buf.String())
	}
	if got.Target != "label" || len(got.Columns) != 5 {
		t.Fatalf("unexpected types: %+v", got)
	}
	types := map[string]string{}
	for _, c := range got.Columns {
		types[c.Name] = c.Type
	}
	if types["qty"] != "free_text" || types["label"] != "target" || types["price"] != "continuous" {
		t.Fatalf("types = %v", types)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	runCmd(t, "config", "set", "max_plots", "4")
	b, err := os.ReadFile(filepath.Join(home, ".tabloom", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "max_plots: 4") {
		t.Fatalf("config not saved:\n%s", b)
	}
	if err := execCmd("config", "set", "missing_cutoff", "1.5"); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := execCmd("config", "set", "no_such_key", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)
	runCmd(t, "config", "show")
	if !strings.Contains(buf.String(), "max_plots: 4") {
		t.Fatalf("show did not pick up saved value:\n%s", buf.String())
	}
}
