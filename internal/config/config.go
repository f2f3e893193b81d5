// Package config loads the gmslr YAML configuration and turns it into
// engine settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gmslr/internal/contrib"
	"gmslr/internal/engine"
	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"
)

// Config holds all gmslr configuration.
type Config struct {
	Projection  ProjectionConfig  `yaml:"projection"`
	Calibration CalibrationConfig `yaml:"calibration"`
	IO          IOConfig          `yaml:"io"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ProjectionConfig sizes the Monte Carlo run.
type ProjectionConfig struct {
	FirstYear int     `yaml:"first_year"`
	LastYear  int     `yaml:"last_year"`
	Members   int     `yaml:"members"`
	Seed      int64   `yaml:"seed"`
	Workers   int     `yaml:"workers"` // 0 = one per CPU
	SDScale   float64 `yaml:"sd_scale"`
	// ExtendedHorizon allows last_year past 2100.
	ExtendedHorizon bool `yaml:"extended_horizon"`
}

// CalibrationConfig selects formula variants and overrides calibration values.
type CalibrationConfig struct {
	Glacier string `yaml:"glacier"` // ar5, glaciermip, glaciermip2
	AntDyn  string `yaml:"antdyn"`  // ar5, levermann
	// Levermann maps scenario names to Levermann fits; "*" matches any scenario.
	Levermann  map[string]string  `yaml:"levermann,omitempty"`
	Parameters contrib.Parameters `yaml:"parameters"`
}

// IOConfig locates inputs and outputs.
type IOConfig struct {
	InputDir  string   `yaml:"input_dir"`
	OutputDir string   `yaml:"output_dir"`
	Database  string   `yaml:"database"`
	Scenarios []string `yaml:"scenarios,omitempty"` // empty = discover from input_dir
	// Realise writes the full ensemble of every quantity as well as the statistics.
	Realise bool `yaml:"realise"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Projection: ProjectionConfig{
			FirstYear: contrib.EndOfHistory + 1,
			LastYear:  contrib.CalibrationYear,
			Members:   engine.DefaultMembers,
			SDScale:   1,
		},
		Calibration: CalibrationConfig{
			Glacier:    string(contrib.VariantAR5),
			AntDyn:     string(contrib.VariantAR5),
			Parameters: contrib.DefaultParameters(),
		},
		IO: IOConfig{
			InputDir:  "input",
			OutputDir: "output",
			Database:  "data/gmslr.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	_, err := c.settings()
	if err != nil {
		return err
	}
	if c.IO.InputDir == "" {
		return projerr.Configuration("input directory not configured (set io.input_dir or GMSLR_INPUT_DIR)").
			ForParam("input_dir")
	}
	return c.Logging.validate()
}

// Settings converts the configuration into engine settings.
func (c *Config) Settings() (engine.Settings, error) {
	if err := c.Validate(); err != nil {
		return engine.Settings{}, err
	}
	return c.settings()
}

func (c *Config) settings() (engine.Settings, error) {
	p := c.Projection
	axis, err := ensemble.NewYearAxis(p.FirstYear, p.LastYear)
	if err != nil {
		return engine.Settings{}, projerr.Configuration("years %d..%d: %v", p.FirstYear, p.LastYear, err).
			ForParam("last_year")
	}
	glacier, err := contrib.ParseGlacier(c.Calibration.Glacier)
	if err != nil {
		return engine.Settings{}, err
	}
	antdyn, err := contrib.ParseAntDyn(c.Calibration.AntDyn)
	if err != nil {
		return engine.Settings{}, err
	}
	if err := c.Calibration.Parameters.Validate(); err != nil {
		return engine.Settings{}, err
	}

	s := engine.Settings{
		Axis:            axis,
		Members:         p.Members,
		Seed:            p.Seed,
		Workers:         p.Workers,
		SDScale:         p.SDScale,
		Glacier:         glacier,
		AntDyn:          antdyn,
		LevermannMap:    c.Calibration.Levermann,
		ExtendedHorizon: p.ExtendedHorizon,
		Params:          c.Calibration.Parameters,
		KeepEnsembles:   c.IO.Realise,
	}
	if err := s.Validate(); err != nil {
		return engine.Settings{}, err
	}
	return s.Clone(), nil
}

// GetInputDir returns the input directory with ~ and $VARS expanded.
func (c *Config) GetInputDir() string { return expand(c.IO.InputDir, "input") }

// GetOutputDir returns the output directory with ~ and $VARS expanded.
func (c *Config) GetOutputDir() string { return expand(c.IO.OutputDir, "output") }

// GetDatabasePath returns the run database path.
func (c *Config) GetDatabasePath() string { return expand(c.IO.Database, "data/gmslr.db") }

func expand(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	path = os.ExpandEnv(path)
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}
