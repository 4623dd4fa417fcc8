package spawn

import (
	"fmt"

	"github.com/zeusync/scatter/internal/core/models"
	"github.com/zeusync/scatter/internal/core/noise"
)

// Mode selects how the gate decides.
type Mode string

const (
	// ModeNoise spawns only where the noise field reaches the threshold.
	ModeNoise Mode = "noise"
	// ModeUniform spawns on every tick at a uniformly random point.
	ModeUniform Mode = "uniform"
)

// ParseMode validates a mode name. The empty string selects ModeNoise.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeNoise:
		return ModeNoise, nil
	case ModeUniform:
		return ModeUniform, nil
	default:
		return "", fmt.Errorf("unknown spawn mode %q", s)
	}
}

// Decision is the outcome of one gate evaluation. U and V are the normalized
// placement coordinate and are set whether or not the gate opened.
type Decision struct {
	Spawn bool
	U, V  float64
	Noise float64
}

// Gate decides once per tick whether to attempt a spawn.
type Gate struct {
	Sampler   noise.Sampler
	Params    noise.Params
	Threshold float64
	Mode      Mode
}

// Decide draws u then v from rnd and samples the noise field at the mapped
// point. Values strictly below the threshold do not spawn.
func (g *Gate) Decide(rnd models.RandomSource) Decision {
	u := rnd.Float64()
	v := rnd.Float64()

	if g.Mode == ModeUniform {
		return Decision{Spawn: true, U: u, V: v, Noise: 1}
	}

	x, y := g.Params.At(u, v)
	n := g.Sampler.Sample(x, y)
	if n < g.Threshold {
		return Decision{U: u, V: v, Noise: n}
	}

	return Decision{Spawn: true, U: u, V: v, Noise: n}
}
