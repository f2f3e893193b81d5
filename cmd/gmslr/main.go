// Command gmslr projects global mean sea-level rise from climate-model
// temperature and thermal expansion, following the AR5 method.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"gmslr/internal/config"
	"gmslr/internal/logging"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	metricsFile string
	timeout     time.Duration

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gmslr",
	Short: "Monte Carlo projections of global mean sea-level rise",
	Long: `gmslr samples temperature and thermal-expansion drivers, evaluates the
glacier, ice-sheet and land-water contributions for every ensemble member,
and reports the median and likely range of each term and of their sum.

Inputs are netCDF timeseries named <scenario>_<quantity>_<stat>.nc.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = logging.Sync()
		return writeMetrics()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "gmslr.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort after this long (0 = no limit)")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(checkCmd)
}

// setup loads the configuration and initializes logging.
func setup() error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Initialize(loaded.Logging.Logger(verbose)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg = loaded
	logging.Get(logging.CategoryBoot).Debug("configuration loaded from %s", configPath)
	return nil
}

func writeMetrics() error {
	if metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
