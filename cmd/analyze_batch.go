package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabloom-cli/internal/source"
	"github.com/KaramelBytes/tabloom-cli/internal/utils"
)

var (
	abLoad   loaderFlags
	abRun    runFlags
	abOutDir string
	abJobs   int
	abQuiet  bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze many CSV/TSV/XLSX/HTML files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandGlobs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if abOutDir == "" {
			return fmt.Errorf("--out-dir is required")
		}
		if err := utils.EnsureDir(abOutDir); err != nil {
			return err
		}
		a, _, err := prepare(&abRun, abRun.features != "", true, false)
		if err != nil {
			return err
		}
		opt, err := abLoad.options(a.cfg)
		if err != nil {
			return err
		}
		if err := a.cfg.Validate(); err != nil {
			return err
		}
		bases := outputBases(files)

		jobs := abJobs
		if jobs <= 0 {
			jobs = runtime.NumCPU()
		}
		reports := make([]string, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for i, path := range files {
			g.Go(func() error {
				t, info, err := source.LoadFile(ctx, path, opt)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				job := a
				if abRun.plotsDir != "" {
					job.run.plotsDir = filepath.Join(abRun.plotsDir, bases[i])
				}
				res, err := job.execute(t, info)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if abRun.features != "" {
					if err := writeFeatures(filepath.Join(abOutDir, bases[i]+".features.csv"), res); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
				}
				out := filepath.Join(abOutDir, bases[i]+".report.md")
				if err := os.WriteFile(out, []byte(res.Report.Markdown()), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				reports[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if !abQuiet {
			for i, out := range reports {
				fmt.Printf("✓ %s -> %s\n", files[i], out)
			}
		}
		return nil
	},
}

// expandGlobs resolves patterns (or literal paths) into a sorted, de-duplicated
// file list.
func expandGlobs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// outputBases derives one file stem per input; repeated basenames get a
// numeric suffix so that outputs never overwrite each other.
func outputBases(files []string) []string {
	out := make([]string, len(files))
	used := map[string]int{}
	for i, f := range files {
		base := filepath.Base(f)
		safe := strings.TrimSuffix(base, filepath.Ext(base))
		used[safe]++
		if n := used[safe]; n > 1 {
			safe = fmt.Sprintf("%s__%d", safe, n)
		}
		out[i] = safe
	}
	return out
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	addRunFlags(analyzeBatchCmd.Flags(), &abRun)
	addLoaderFlags(analyzeBatchCmd.Flags(), &abLoad)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for the per-file reports")
	analyzeBatchCmd.Flags().IntVarP(&abJobs, "jobs", "j", 0, "files analyzed concurrently (0 = number of CPUs)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
