package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom-cli/internal/session"
)

var (
	sessTarget string
	sessClear  bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved analyses (dataset, target and pinned column types)",
}

var sessionInitCmd = &cobra.Command{
	Use:   "init <name> <dataset>",
	Short: "Create a new session for a dataset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, dataset := args[0], args[1]
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("invalid session name: %s", name)
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		root, err := sessionsRoot(c)
		if err != nil {
			return err
		}
		dir := filepath.Join(root, name)
		// Refuse to overwrite an existing session.
		if _, err := os.Stat(filepath.Join(dir, session.FileName)); err == nil {
			return fmt.Errorf("session already exists at %s", dir)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat session: %w", err)
		}
		abs, err := filepath.Abs(dataset)
		if err != nil {
			return fmt.Errorf("resolve dataset path: %w", err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("dataset: %w", err)
		}
		s := session.New(name, abs, dir)
		s.SetTarget(sessTarget)
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Session initialized: %s\n", dir)
		return nil
	},
}

var sessionHintCmd = &cobra.Command{
	Use:   "hint <name> <column=type>|<column>",
	Short: "Pin a column type in a session (use --clear to remove)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sessionByName(args[0])
		if err != nil {
			return err
		}
		if sessClear {
			col := strings.TrimSpace(args[1])
			if !s.ClearHint(col) {
				return fmt.Errorf("no hint set for column %q", col)
			}
			if err := s.Save(); err != nil {
				return err
			}
			fmt.Printf("✓ Cleared hint for %s\n", col)
			return nil
		}
		hints, err := parseHintArgs(args[1:])
		if err != nil {
			return err
		}
		for col, typ := range hints {
			if err := s.SetHint(col, typ); err != nil {
				return err
			}
			fmt.Printf("✓ %s pinned to %s\n", col, s.Hints[col])
		}
		return s.Save()
	},
}

var sessionTargetCmd = &cobra.Command{
	Use:   "target <name> [column]",
	Short: "Set (or clear, when column is omitted) the session target",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sessionByName(args[0])
		if err != nil {
			return err
		}
		target := ""
		if len(args) == 2 {
			target = args[1]
		}
		s.SetTarget(target)
		if err := s.Save(); err != nil {
			return err
		}
		if s.Target == "" {
			fmt.Println("✓ Target cleared")
		} else {
			fmt.Printf("✓ Target set to %s\n", s.Target)
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a session's dataset, hints and runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sessionByName(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "name: %s\n", s.Name)
		fmt.Fprintf(out, "id: %s\n", s.ID)
		fmt.Fprintf(out, "dataset: %s\n", s.Dataset)
		if s.Target != "" {
			fmt.Fprintf(out, "target: %s\n", s.Target)
		}
		if len(s.Hints) > 0 {
			fmt.Fprintln(out, "hints:")
			cols := make([]string, 0, len(s.Hints))
			for c := range s.Hints {
				cols = append(cols, c)
			}
			sort.Strings(cols)
			for _, c := range cols {
				fmt.Fprintf(out, "  - %s: %s\n", c, s.Hints[c])
			}
		}
		fmt.Fprintf(out, "runs: %d\n", len(s.Runs))
		if r, ok := s.LastRun(); ok {
			fmt.Fprintf(out, "last run: %s (%d rows, %d plots, %d features) -> %s\n",
				r.At.Format("2006-01-02 15:04:05"), r.Rows, len(r.Plots), r.Width, r.Report)
		}
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		root, err := sessionsRoot(c)
		if err != nil {
			return err
		}
		all, err := session.List(root)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(all) == 0 {
			fmt.Fprintln(out, "(no sessions)")
			return nil
		}
		for _, s := range all {
			fmt.Fprintf(out, "- %s: %s (%d runs)\n", s.Name, filepath.Base(s.Dataset), len(s.Runs))
		}
		return nil
	},
}

func sessionByName(name string) (*session.Session, error) {
	if name == "" {
		return nil, errors.New("session name is required")
	}
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	return loadSession(c, name)
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionInitCmd, sessionHintCmd, sessionTargetCmd, sessionShowCmd, sessionListCmd)
	sessionInitCmd.Flags().StringVarP(&sessTarget, "target", "t", "", "target column")
	sessionHintCmd.Flags().BoolVar(&sessClear, "clear", false, "remove the hint for the given column")
}
