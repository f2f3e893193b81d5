package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gmslr/internal/engine"
	"gmslr/internal/ensemble"
	"gmslr/internal/logging"
	"gmslr/internal/ncio"
	"gmslr/internal/report"
	"gmslr/internal/store"
)

var (
	projectSeed    int64
	projectMembers int
	projectNoStore bool
	projectExport  bool
)

// projectCmd runs the projection for one or more scenarios
var projectCmd = &cobra.Command{
	Use:   "project [scenario...]",
	Short: "Project sea-level rise for the given scenarios",
	Long: `Runs the Monte Carlo projection for each scenario. Without arguments,
every scenario with input files in the input directory is projected.

For each scenario the list file gains one line per quantity, statistics
files <scenario>_<quantity>_{mid,lower,upper}.nc are written, and the
result table is stored in the run database. With --export-drivers the
driver timeseries actually used, trimmed to the year axis, are written to
the output directory in the input file layout.

Example:
  gmslr project rcp26 rcp85 --seed 42`,
	RunE: runProject,
}

func init() {
	projectCmd.Flags().Int64Var(&projectSeed, "seed", 0, "Override the configured seed")
	projectCmd.Flags().IntVar(&projectMembers, "members", 0, "Override the configured ensemble size")
	projectCmd.Flags().BoolVar(&projectNoStore, "no-store", false, "Do not record runs in the database")
	projectCmd.Flags().BoolVar(&projectExport, "export-drivers", false, "Write the drivers used to the output directory")
}

func runProject(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logging.Get(logging.CategoryBoot).Warn("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		settings.Seed = projectSeed
	}
	if cmd.Flags().Changed("members") {
		settings.Members = projectMembers
	}
	eng, err := engine.New(settings)
	if err != nil {
		return err
	}

	scenarios := args
	if len(scenarios) == 0 {
		if len(cfg.IO.Scenarios) > 0 {
			scenarios = cfg.IO.Scenarios
		} else if scenarios, err = ncio.Discover(cfg.GetInputDir()); err != nil {
			return err
		}
	}

	writer, err := ncio.NewWriter(cfg.GetOutputDir())
	if err != nil {
		return err
	}
	var db *store.Store
	if !projectNoStore {
		if db, err = store.NewStore(cfg.GetDatabasePath()); err != nil {
			return err
		}
		defer db.Close()
	}

	loader := ncio.NewLoader(cfg.GetInputDir(), settings.Axis)
	out := cmd.OutOrStdout()
	for _, scenario := range scenarios {
		id, err := projectScenario(ctx, out, eng, loader, writer, db, scenario, settings.KeepEnsembles)
		if err != nil {
			return err
		}
		if id != "" {
			fmt.Fprintf(out, "stored %s as run %s\n", scenario, id)
		}
	}
	return nil
}

// projectScenario runs one scenario and writes its outputs. It returns the
// stored run id, or "" when no database is in use.
func projectScenario(ctx context.Context, out io.Writer, eng *engine.Engine, loader *ncio.Loader, writer *ncio.Writer,
	db *store.Store, scenario string, realise bool) (string, error) {
	tas, zostoga, err := loader.Load(scenario)
	if err != nil {
		return "", err
	}
	if projectExport {
		if err := ncio.WriteDriver(writer.Dir, scenario, ensemble.Temperature, tas); err != nil {
			return "", err
		}
		if err := ncio.WriteDriver(writer.Dir, scenario, ensemble.Expansion, zostoga); err != nil {
			return "", err
		}
	}
	res, err := eng.Run(ctx, engine.Request{Scenario: scenario, Temperature: tas, Expansion: zostoga})
	if err != nil {
		return "", err
	}

	for _, line := range report.ListLines(scenario, res.Table) {
		fmt.Fprintln(out, line)
	}
	if err := writer.AppendList(scenario, res.Table); err != nil {
		return "", err
	}
	if err := writer.WriteStats(scenario, res.Table); err != nil {
		return "", err
	}
	if realise {
		if err := writer.WriteEnsembles(scenario, res.Table.Meta, res.Ensembles); err != nil {
			return "", err
		}
	}
	if db == nil {
		return "", nil
	}
	return db.SaveRun(ctx, res.Table)
}

func commandContext() (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}
