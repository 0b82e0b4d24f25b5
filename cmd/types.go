package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
)

var (
	typesLoad loaderFlags
	typesRun  runFlags
)

var typesCmd = &cobra.Command{
	Use:   "types [file]",
	Short: "Print the inferred column types as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, s, err := prepare(&typesRun, false, false, len(args) == 0)
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
		t, _, err := loadFile(cmd.Context(), a, typesLoad, path)
		if err != nil {
			return err
		}
		hints, err := detect.ParseHints(a.hints)
		if err != nil {
			return err
		}
		tm, err := detect.Detect(t, hints, a.run.target, a.cfg.Detect())
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"target": tm.Target(), "columns": tm.Entries()}); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
	addLoaderFlags(typesCmd.Flags(), &typesLoad)
	typesCmd.Flags().StringVarP(&typesRun.target, "target", "t", "", "target column")
	typesCmd.Flags().StringArrayVar(&typesRun.hints, "hint", nil, "force a column type: col=type (repeatable)")
	typesCmd.Flags().StringVarP(&typesRun.session, "session", "s", "", "session name to read hints from")
}
