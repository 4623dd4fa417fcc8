package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsBind(t *testing.T) {
	f := NewFlags()
	fs := flag.NewFlagSet("scatter", flag.ContinueOnError)
	f.Bind(fs)

	require.NoError(t, fs.Parse([]string{"-mode", "headless", "-seed", "dunes", "-ticks", "100"}))
	assert.Equal(t, modeHeadless, f.Mode)
	assert.Equal(t, "dunes", f.Seed)
	assert.Equal(t, uint64(100), f.Ticks)
	assert.Equal(t, ".env", f.EnvFile)
	assert.NoError(t, f.validate())
}

func TestFlagsRejectUnknownMode(t *testing.T) {
	f := NewFlags()
	f.Mode = "gui"
	assert.Error(t, f.validate())
}

func TestRunHeadless(t *testing.T) {
	f := NewFlags()
	f.Mode = modeHeadless
	f.Ticks = 20
	f.EnvFile = ""
	f.LogFile = t.TempDir() + "/scatter.log"

	assert.NoError(t, run(f))
}
