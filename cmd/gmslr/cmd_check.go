package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gmslr/internal/regression"
	"gmslr/internal/store"
)

var checkBattery string

// checkCmd compares a stored run with reference values
var checkCmd = &cobra.Command{
	Use:   "check [run-id]",
	Short: "Check a stored run against reference values",
	Long: `Evaluates a regression battery against a stored run. Without --battery,
the built-in AR5 battery checks the uniformly sampled ice-sheet dynamics
terms at 2100. Exits non-zero if any check fails.`,
	Args: cobra.ExactArgs(1),
	RunE: checkRun,
}

func init() {
	checkCmd.Flags().StringVar(&checkBattery, "battery", "", "YAML battery file (default: built-in AR5 battery)")
}

func checkRun(cmd *cobra.Command, args []string) error {
	battery := regression.DefaultBattery()
	if checkBattery != "" {
		var err error
		if battery, err = regression.LoadBattery(checkBattery); err != nil {
			return err
		}
	}

	db, err := store.NewStore(cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()
	tbl, err := db.LoadTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	results := regression.RunBattery(battery, tbl)
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "%-4s %-28s %8.4f  %s\n", r.Status, r.CheckID, r.Got, r.Error)
	}
	if regression.Failed(results) {
		return fmt.Errorf("run %s failed reference checks", args[0])
	}
	return nil
}
