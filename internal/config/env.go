package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides are the settings that may come from the environment. Unset
// variables leave the pointer nil and the file value in place.
type envOverrides struct {
	Seed      *int64   `env:"GMSLR_SEED"`
	Members   *int     `env:"GMSLR_MEMBERS"`
	Workers   *int     `env:"GMSLR_WORKERS"`
	SDScale   *float64 `env:"GMSLR_SD_SCALE"`
	InputDir  *string  `env:"GMSLR_INPUT_DIR"`
	OutputDir *string  `env:"GMSLR_OUTPUT_DIR"`
	Database  *string  `env:"GMSLR_DB"`
	LogLevel  *string  `env:"GMSLR_LOG_LEVEL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}
	set(&c.Projection.Seed, o.Seed)
	set(&c.Projection.Members, o.Members)
	set(&c.Projection.Workers, o.Workers)
	set(&c.Projection.SDScale, o.SDScale)
	set(&c.IO.InputDir, o.InputDir)
	set(&c.IO.OutputDir, o.OutputDir)
	set(&c.IO.Database, o.Database)
	set(&c.Logging.Level, o.LogLevel)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
