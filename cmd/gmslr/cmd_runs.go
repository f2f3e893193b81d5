package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gmslr/internal/report"
	"gmslr/internal/store"
)

var (
	showMarkdown bool
	showRaw      bool
	showYear     int
)

// runsCmd lists stored runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs",
	Args:  cobra.NoArgs,
	RunE:  listRuns,
}

// runsDeleteCmd removes stored runs
var runsDeleteCmd = &cobra.Command{
	Use:   "delete [run-id...]",
	Short: "Delete stored runs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  deleteRuns,
}

// showCmd renders a stored run
var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the result table of a stored run",
	Long: `Renders the summary of every quantity of a stored run at one year.

Examples:
  gmslr show 3f1c...            # terminal table, last year
  gmslr show 3f1c... --year 2050
  gmslr show 3f1c... --markdown`,
	Args: cobra.ExactArgs(1),
	RunE: showRun,
}

func init() {
	runsCmd.AddCommand(runsDeleteCmd)

	showCmd.Flags().BoolVar(&showMarkdown, "markdown", false, "Render as Markdown")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "With --markdown, print the Markdown source")
	showCmd.Flags().IntVar(&showYear, "year", 0, "Year to show (default: last)")
}

func listRuns(cmd *cobra.Command, args []string) error {
	db, err := store.NewStore(cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored runs.")
		return nil
	}
	for _, r := range runs {
		m := r.Meta
		fmt.Fprintf(out, "%s  %-10s %d-%d  %7d members  seed %-6d %s/%s  %s\n",
			r.ID, m.Scenario, r.FirstYear, r.LastYear, m.Members, m.Seed, m.Glacier, m.AntDyn,
			r.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func deleteRuns(cmd *cobra.Command, args []string) error {
	db, err := store.NewStore(cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	for _, id := range args {
		if err := db.DeleteRun(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", id)
	}
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	db, err := store.NewStore(cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	tbl, err := db.LoadTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var out string
	if showMarkdown {
		md, err := report.Markdown(tbl, showYear)
		if err != nil {
			return err
		}
		out = md
		if !showRaw {
			if out, err = report.RenderMarkdown(md, 100); err != nil {
				return err
			}
		}
	} else if out, err = report.Table(tbl, showYear); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
