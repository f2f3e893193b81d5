// Package logging provides config-driven categorized logging for gmslr.
// Every category is a named child of one zap root logger; a category that
// is switched off in the configuration gets a no-op logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup and configuration
	CategoryInput  Category = "input"  // netCDF input loading
	CategoryEngine Category = "engine" // Run orchestration
	CategoryModels Category = "models" // Contribution model evaluation
	CategoryStats  Category = "stats"  // Percentile reduction
	CategoryOutput Category = "output" // netCDF output, list file, reports
	CategoryStore  Category = "store"  // Run persistence
)

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	Level      string
	JSONFormat bool
	// File receives the log when set; stderr otherwise.
	File       string
	Categories map[string]bool
}

// Logger is a category logger with printf-style helpers.
type Logger struct {
	category Category
	z        *zap.Logger
}

var (
	root      = zap.NewNop()
	settings  Config
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
)

// Initialize builds the root logger. It may be called again to reconfigure;
// cached category loggers are discarded.
func Initialize(cfg Config) error {
	level, err := zapcore.ParseLevel(levelOrDefault(cfg.Level))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !cfg.JSONFormat {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		zc.OutputPaths = []string{cfg.File}
	}

	z, err := zc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Use(z, cfg)

	Get(CategoryBoot).Debug("logging initialized at %s level", level)
	return nil
}

// Use installs z as the root logger. Tests pass zap.NewNop or an observer.
func Use(z *zap.Logger, cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	_ = root.Sync()
	root = z
	settings = cfg
	loggers = make(map[Category]*Logger)
}

func levelOrDefault(s string) string {
	if s == "" {
		return "info"
	}
	return s
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	if settings.Categories == nil {
		return true
	}
	enabled, exists := settings.Categories[string(category)]
	if !exists {
		return true // Enable by default if not specified
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, z: zap.NewNop()}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{category: category, z: root.Named(string(category))}
	loggers[category] = l
	return l
}

// Zap exposes the structured logger for callers that log fields.
func (l *Logger) Zap() *zap.Logger { return l.z }

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{category: l.category, z: l.z.With(fields...)}
}

func (l *Logger) Debug(format string, args ...any) { l.z.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Info(format string, args ...any)  { l.z.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warn(format string, args ...any)  { l.z.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Error(format string, args ...any) { l.z.Error(fmt.Sprintf(format, args...)) }

// Sync flushes the root logger.
func Sync() error {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	return root.Sync()
}

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Zap().Debug(t.op+" completed", zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Zap().Warn(t.op+" was slow",
			zap.Duration("elapsed", elapsed), zap.Duration("threshold", threshold))
	} else {
		Get(t.category).Zap().Debug(t.op+" completed", zap.Duration("elapsed", elapsed))
	}
	return elapsed
}
