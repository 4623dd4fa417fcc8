package log

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesTypedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithCore(core)

	l.Info("Seeded", Int("seeds", 8), Float64("threshold", 0.01), Error(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Seeded", entries[0].Message)
	assert.EqualValues(t, 8, fields["seeds"])
	assert.InDelta(t, 0.01, fields["threshold"], 1e-12)
	assert.Equal(t, "boom", fields["error"])
}

func TestLoggerWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithCore(core).With(String("component", "generator"))

	l.Warn("Short")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "generator", logs.All()[0].ContextMap()["component"])
}

func TestLogRespectsLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithCore(core)
	l.SetLevel(LevelWarn)

	l.Log(LevelInfo, "Dropped")
	l.Log(LevelError, "Kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Kept", logs.All()[0].Message)
	assert.Equal(t, LevelWarn, l.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelSilent, ParseLevel("off"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestNopIsSilent(t *testing.T) {
	l := NewNop()
	l.Error("Nothing happens")
	assert.Equal(t, LevelSilent, l.GetLevel())
}

func TestNewWithOutputWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scatter.log")
	l, err := NewWithOutput(LevelInfo, path)
	require.NoError(t, err)

	l.Info("Tick loop started", Int("ticks", 3))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Tick loop started"`)
	assert.Contains(t, string(data), `"ticks":3`)
}
