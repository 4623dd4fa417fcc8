package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scatter/internal/core/noise"
)

type seqRandom struct {
	floats []float64
	i      int
}

func (s *seqRandom) Float64() float64 {
	v := s.floats[s.i%len(s.floats)]
	s.i++
	return v
}

func (s *seqRandom) IntN(int) int { return 0 }

func constSampler(v float64) noise.Sampler {
	return noise.SamplerFunc(func(float64, float64) float64 { return v })
}

func TestGateThresholdBoundary(t *testing.T) {
	g := &Gate{Sampler: constSampler(0.7), Threshold: 0.7, Params: noise.Params{Scale: 10}}

	d := g.Decide(&seqRandom{floats: []float64{0.2, 0.4}})
	assert.True(t, d.Spawn, "noise equal to threshold spawns")
	assert.Equal(t, 0.2, d.U)
	assert.Equal(t, 0.4, d.V)
	assert.Equal(t, 0.7, d.Noise)

	g.Sampler = constSampler(0.6999999)
	d = g.Decide(&seqRandom{floats: []float64{0.2, 0.4}})
	assert.False(t, d.Spawn, "noise below threshold does not spawn")
}

func TestGateSamplesMappedPoint(t *testing.T) {
	var gotX, gotY float64
	g := &Gate{
		Sampler: noise.SamplerFunc(func(x, y float64) float64 {
			gotX, gotY = x, y
			return 1
		}),
		Params:    noise.Params{OriginX: 5, OriginY: 1, Scale: 10},
		Threshold: 0.5,
	}

	d := g.Decide(&seqRandom{floats: []float64{0.5, 0.25}})
	require.True(t, d.Spawn)
	assert.Equal(t, 10.0, gotX)
	assert.Equal(t, 3.5, gotY)
}

func TestGateThresholdExtremes(t *testing.T) {
	rnd := &seqRandom{floats: []float64{0.1, 0.9, 0.3}}

	always := &Gate{Sampler: constSampler(0), Threshold: 0}
	never := &Gate{Sampler: constSampler(0.999), Threshold: 1}
	for i := 0; i < 10; i++ {
		assert.True(t, always.Decide(rnd).Spawn)
		assert.False(t, never.Decide(rnd).Spawn)
	}
}

func TestGateUniformModeIgnoresNoise(t *testing.T) {
	g := &Gate{Sampler: constSampler(0), Threshold: 0.9, Mode: ModeUniform}
	d := g.Decide(&seqRandom{floats: []float64{0.3, 0.6}})
	assert.True(t, d.Spawn)
	assert.Equal(t, 0.3, d.U)
	assert.Equal(t, 0.6, d.V)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeNoise, m)

	m, err = ParseMode("uniform")
	require.NoError(t, err)
	assert.Equal(t, ModeUniform, m)

	_, err = ParseMode("grid")
	assert.Error(t, err)
}
