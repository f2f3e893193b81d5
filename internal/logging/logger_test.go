package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, cfg Config) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core), cfg)
	t.Cleanup(func() { Use(zap.NewNop(), Config{}) })
	return logs
}

func TestCategoriesAreNamedChildren(t *testing.T) {
	logs := observe(t, Config{})

	Get(CategoryEngine).Info("run %d started", 3)
	Get(CategoryStore).Warn("slow insert")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "engine", entries[0].LoggerName)
	assert.Equal(t, "run 3 started", entries[0].Message)
	assert.Equal(t, "store", entries[1].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestCategoryToggle(t *testing.T) {
	logs := observe(t, Config{Categories: map[string]bool{"stats": false, "engine": true}})

	assert.False(t, IsCategoryEnabled(CategoryStats))
	assert.True(t, IsCategoryEnabled(CategoryEngine))
	assert.True(t, IsCategoryEnabled(CategoryInput), "unlisted categories default to enabled")

	Get(CategoryStats).Error("hidden")
	Get(CategoryEngine).Info("shown")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestGetCachesLoggers(t *testing.T) {
	observe(t, Config{})
	assert.Same(t, Get(CategoryModels), Get(CategoryModels))
}

func TestWithCarriesFields(t *testing.T) {
	logs := observe(t, Config{})
	Get(CategoryEngine).With(zap.String("scenario", "rcp45")).Debug("x")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "rcp45", logs.All()[0].ContextMap()["scenario"])
}

func TestTimerLogging(t *testing.T) {
	logs := observe(t, Config{})

	timer := StartTimer(CategoryEngine, "reduce")
	time.Sleep(time.Millisecond)
	elapsed := timer.Stop()
	assert.Positive(t, elapsed)

	slow := StartTimer(CategoryEngine, "aggregate")
	time.Sleep(time.Millisecond)
	slow.StopWithThreshold(time.Nanosecond)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "reduce completed", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestInitializeWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gmslr.log")
	require.NoError(t, Initialize(Config{Level: "debug", JSONFormat: true, File: path}))
	t.Cleanup(func() { Use(zap.NewNop(), Config{}) })

	Get(CategoryOutput).Info("wrote %s", "list")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"logger":"output"`), string(data))
	assert.Contains(t, string(data), "wrote list")
}

func TestInitializeRejectsBadLevel(t *testing.T) {
	assert.Error(t, Initialize(Config{Level: "chatty"}))
}
