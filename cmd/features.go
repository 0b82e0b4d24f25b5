package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	featLoad loaderFlags
	featRun  runFlags
)

var featuresCmd = &cobra.Command{
	Use:   "features [file]",
	Short: "Fit the preprocessing pipeline and write the feature matrix as CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if featRun.features == "" {
			return errors.New("--output is required")
		}
		a, s, err := prepare(&featRun, true, false, len(args) == 0)
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
		t, info, err := loadFile(cmd.Context(), a, featLoad, path)
		if err != nil {
			return err
		}
		res, err := a.execute(t, info)
		if err != nil {
			return err
		}
		if err := writeFeatures(featRun.features, res); err != nil {
			return err
		}
		for _, b := range res.Fitted.Branches() {
			fmt.Printf("- %s\n", b)
		}
		fmt.Printf("✓ Wrote %d×%d feature matrix to %s\n", res.Table.NumRows(), res.Fitted.Width(), featRun.features)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	addLoaderFlags(featuresCmd.Flags(), &featLoad)
	featuresCmd.Flags().StringVarP(&featRun.features, "output", "o", "", "path to write the feature matrix (CSV)")
	featuresCmd.Flags().StringVarP(&featRun.target, "target", "t", "", "target column (excluded from the features)")
	featuresCmd.Flags().StringArrayVar(&featRun.hints, "hint", nil, "force a column type: col=type (repeatable)")
	featuresCmd.Flags().StringVarP(&featRun.session, "session", "s", "", "session name to read hints from")
}
