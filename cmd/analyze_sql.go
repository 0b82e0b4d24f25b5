package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom-cli/internal/source"
)

var (
	sqlDriver  string
	sqlDSN     string
	sqlQuery   string
	sqlMaxRows int
	sqlRun     runFlags
)

var analyzeSQLCmd = &cobra.Command{
	Use:   "analyze-sql",
	Short: "Analyze the result set of a SQL query (sqlite, postgres, sqlserver)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sqlDSN == "" || sqlQuery == "" {
			return errors.New("--dsn and --query are required")
		}
		a, s, err := prepare(&sqlRun, sqlRun.features != "", true, false)
		if err != nil {
			return err
		}
		opt := source.DefaultOptions()
		opt.MaxRows = sqlMaxRows
		opt.Missing = a.cfg.Missing()
		t, info, err := source.LoadQuery(cmd.Context(), sqlDriver, sqlDSN, sqlQuery, opt)
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
	rootCmd.AddCommand(analyzeSQLCmd)
	analyzeSQLCmd.Flags().StringVar(&sqlDriver, "driver", "sqlite", "database driver: sqlite|postgres|sqlserver")
	analyzeSQLCmd.Flags().StringVar(&sqlDSN, "dsn", "", "data source name (file path for sqlite)")
	analyzeSQLCmd.Flags().StringVarP(&sqlQuery, "query", "q", "", "SELECT statement producing the dataset")
	analyzeSQLCmd.Flags().IntVar(&sqlMaxRows, "max-rows", 0, "maximum rows to load (0 = unlimited)")
	addRunFlags(analyzeSQLCmd.Flags(), &sqlRun)
}
