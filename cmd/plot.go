package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	plotLoad loaderFlags
	plotRun  runFlags
)

var plotCmd = &cobra.Command{
	Use:   "plot [file]",
	Short: "Render the most relevant plots of a dataset into a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if plotRun.plotsDir == "" {
			return errors.New("--out is required")
		}
		a, s, err := prepare(&plotRun, false, true, len(args) == 0)
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
		t, info, err := loadFile(cmd.Context(), a, plotLoad, path)
		if err != nil {
			return err
		}
		res, err := a.execute(t, info)
		if err != nil {
			return err
		}
		for _, f := range res.Figures {
			fmt.Printf("✓ %s\n", f.Path)
		}
		for _, f := range res.Failures {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", f)
		}
		if len(res.Figures) == 0 && len(res.Failures) == 0 {
			fmt.Println("(no eligible columns to plot)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	addLoaderFlags(plotCmd.Flags(), &plotLoad)
	plotCmd.Flags().StringVar(&plotRun.plotsDir, "out", "", "directory to write plots to")
	plotCmd.Flags().StringVarP(&plotRun.target, "target", "t", "", "target column")
	plotCmd.Flags().StringArrayVar(&plotRun.hints, "hint", nil, "force a column type: col=type (repeatable)")
	plotCmd.Flags().IntVar(&plotRun.maxPlots, "max-plots", 0, "maximum number of plots (overrides config)")
	plotCmd.Flags().StringVarP(&plotRun.session, "session", "s", "", "session name to read hints from")
}
