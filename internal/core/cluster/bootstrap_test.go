package cluster

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/scatter/internal/core/geom"
	"github.com/zeusync/scatter/internal/core/observability/log"
)

func TestBootstrapConvergesWithinTarget(t *testing.T) {
	c, err := New(0.001, 8, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	res, err := c.Bootstrap(8, 10000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Seeds, 1)
	assert.LessOrEqual(t, res.Seeds, 8)
	assert.Equal(t, res.Seeds, c.SeedCount())
	assert.LessOrEqual(t, res.Iterations, 10000)
	assert.True(t, res.Converged())
}

func TestBootstrapFirstSeedUsesFirstSample(t *testing.T) {
	rnd := &scriptedRandom{floats: []float64{0.3, 0.6}, ints: []int{2}}
	c, err := New(1, 4, rnd)
	require.NoError(t, err)

	res, err := c.Bootstrap(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Iterations)
	require.Equal(t, 1, c.SeedCount())
	assert.Equal(t, Seed{Label: 2, Position: geom.Vec3{X: 0.3, Y: 0.6}}, c.Seeds()[0])
}

func TestBootstrapStopsAtIterationCap(t *testing.T) {
	// The whole unit square is within reach of any seed, so no second seed
	// can ever be created.
	c, err := New(2.0, 3, rand.New(rand.NewPCG(5, 5)))
	require.NoError(t, err)

	res, err := c.Bootstrap(8, 250)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Seeds)
	assert.Equal(t, 250, res.Iterations)
	assert.False(t, res.Converged())
}

func TestBootstrapKeepsExistingSeeds(t *testing.T) {
	c, err := New(0.0001, 3, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)
	require.NoError(t, c.AddSeed(Seed{Label: 1, Position: geom.Vec3{X: 0.5, Y: 0.5}}))

	_, err = c.Bootstrap(4, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, c.SeedCount())
	assert.Equal(t, Seed{Label: 1, Position: geom.Vec3{X: 0.5, Y: 0.5}}, c.Seeds()[0])
}

func TestBootstrapperLogsShortfall(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c, err := New(2.0, 3, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)

	res, err := Bootstrapper{TargetSeeds: 5, MaxIterations: 20, Logger: log.NewWithCore(core)}.Run(c)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Seeds)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, "Color distribution bootstrap stopped short of target", warns[0].Message)
	assert.EqualValues(t, 1, warns[0].ContextMap()["seeds"])
	assert.EqualValues(t, 5, warns[0].ContextMap()["target"])
}

func TestBootstrapperLogsSuccess(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c, err := New(0.001, 3, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)

	_, err = Bootstrapper{TargetSeeds: 3, Logger: log.NewWithCore(core)}.Run(c)
	require.NoError(t, err)
	infos := logs.FilterLevelExact(zapcore.InfoLevel).All()
	require.Len(t, infos, 1)
	assert.Equal(t, "Color distribution bootstrapped", infos[0].Message)
}
