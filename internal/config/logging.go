package config

import (
	"gmslr/internal/logging"
	"gmslr/internal/projerr"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`                // debug, info, warn, error
	Format     string          `yaml:"format"`               // json, text
	File       string          `yaml:"file,omitempty"`       // empty = stderr
	Categories map[string]bool `yaml:"categories,omitempty"` // Per-category toggles
}

func (c LoggingConfig) validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return projerr.Configuration("unknown log level %q", c.Level).ForParam("logging.level")
	}
	switch c.Format {
	case "", "json", "text":
	default:
		return projerr.Configuration("unknown log format %q", c.Format).ForParam("logging.format")
	}
	return nil
}

// IsCategoryEnabled returns whether logging is enabled for a category.
func (c LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true // Enable by default if not specified
	}
	return enabled
}

// Logger converts the section for logging.Initialize; verbose forces debug.
func (c LoggingConfig) Logger(verbose bool) logging.Config {
	lc := logging.Config{
		Level:      c.Level,
		JSONFormat: c.Format == "json",
		File:       c.File,
		Categories: c.Categories,
	}
	if verbose {
		lc.Level = "debug"
	}
	return lc
}
