package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	anaLoad loaderFlags
	anaRun  runFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Infer column types, clean, synthesize features and plot one dataset",
	Long: `Analyze loads a CSV/TSV, XLSX or HTML table, infers a semantic type per column,
applies the cleaning rules and prints a Markdown report. With --plots it renders
charts, with --features it writes the transformed feature matrix. When --session
is given, or the working directory sits inside a session directory and no file
is named, the dataset, target and hints default to the session's.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, s, err := prepare(&anaRun, anaRun.features != "", true, len(args) == 0)
		if err != nil {
			return err
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else if s != nil {
			path = s.Dataset
		}
		if path == "" {
			return errors.New("dataset path is required (or use --session with a dataset)")
		}
		t, info, err := loadFile(cmd.Context(), a, anaLoad, path)
		if err != nil {
			return err
		}
		res, err := a.execute(t, info)
		if err != nil {
			return err
		}
		return deliver(res, a.run, s)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addRunFlags(analyzeCmd.Flags(), &anaRun)
	addLoaderFlags(analyzeCmd.Flags(), &anaLoad)
}
