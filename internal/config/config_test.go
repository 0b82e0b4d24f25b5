package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/pipeline"
)

func TestLoadFileEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "max_plots: 5\nhigh_card_encoding: hashing\ndecimal_separator: \",\"\nmissing_markers: [\"n/a\", \"--\"]\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TABLOOM_TOP_N", "4")
	t.Setenv("TABLOOM_SESSIONS_DIR", filepath.Join(dir, "sessions"))

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxPlots != 5 || c.TopN != 4 || c.Bins != 30 {
		t.Fatalf("plots: max=%d top=%d bins=%d", c.MaxPlots, c.TopN, c.Bins)
	}
	if c.SessionsDir != filepath.Join(dir, "sessions") {
		t.Fatalf("sessions_dir = %q", c.SessionsDir)
	}
	if d := c.Detect(); d.NumericThreshold != 0.95 || d.IntCardinalityCap != 42 || d.Number.Decimal != ',' {
		t.Fatalf("detect config = %+v", d)
	}
	if p := c.Pipeline(); p.HighCardEncoding != pipeline.EncodingHashing || p.HashBuckets != 16 || p.Number.Decimal != ',' {
		t.Fatalf("pipeline config = %+v", p)
	}
	if z := c.Viz(); z.MaxPlots != 5 || z.TopN != 4 || z.Format != "png" || z.Number.Decimal != ',' {
		t.Fatalf("viz config = %+v", z)
	}
	if m := c.Missing(); !m.Contains("--") || m.Contains("NA") {
		t.Fatalf("missing markers = %v", m)
	}
	if cl := c.Clean(); cl.MissingCutoff != 0.9 || cl.Number.Decimal != ',' {
		t.Fatalf("clean config = %+v", cl)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("high_card_encoding: onehot\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected invalid encoding error")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing config file")
	}
}

func TestSetAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("bins: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		key, val string
		ok       bool
	}{
		{"max_plots", "7", true},
		{"max_plots", "0", false},
		{"hash_buckets", "0", true},
		{"missing_cutoff", "0.8", true},
		{"missing_cutoff", "1.5", false},
		{"sample_random", "true", true},
		{"sample_seed", "-1", false},
		{"decimal_separator", ",,", false},
		{"top_n", "abc", false},
		{"nope", "1", false},
	}
	for _, tc := range cases {
		fresh := *c
		err := fresh.Set(tc.key, tc.val)
		if (err == nil) != tc.ok {
			t.Errorf("Set(%s, %s) err = %v, want ok=%v", tc.key, tc.val, err, tc.ok)
		}
	}
	hashing := *c
	if err := hashing.Set("high_card_encoding", "hashing"); err != nil {
		t.Fatalf("Set hashing: %v", err)
	}
	if err := hashing.Set("hash_buckets", "0"); err == nil {
		t.Fatalf("expected error for zero hash buckets with hashing encoding")
	}
	hashing.HighCardEncoding = pipeline.EncodingFrequency
	hashing.HashBuckets = 0
	if err := hashing.Set("high_card_encoding", "hashing"); err == nil {
		t.Fatalf("expected error switching to hashing with zero buckets")
	}

	if err := c.Set("max_plots", "7"); err != nil {
		t.Fatal(err)
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.MaxPlots != 7 || again.Bins != 12 {
		t.Fatalf("reloaded max_plots=%d bins=%d", again.MaxPlots, again.Bins)
	}
	keys := Keys()
	if len(keys) < 30 || keys[0] != "bins" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestLoadRejectsZeroMaxPlots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("max_plots: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for max_plots 0")
	}
}
