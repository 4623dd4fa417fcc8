package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Sampler is a deterministic, continuous 2D coherent-noise function with
// output in [0, 1].
type Sampler interface {
	Sample(x, y float64) float64
}

// SamplerFunc adapts a plain function to Sampler.
type SamplerFunc func(x, y float64) float64

func (f SamplerFunc) Sample(x, y float64) float64 { return f(x, y) }

// Params positions the unit sample square inside the noise field.
type Params struct {
	OriginX float64 `yaml:"origin_x" json:"origin_x"`
	OriginY float64 `yaml:"origin_y" json:"origin_y"`
	Scale   float64 `yaml:"scale" json:"scale"`
}

// At maps a normalized sample (u, v) into noise space.
func (p Params) At(u, v float64) (x, y float64) {
	return p.OriginX + u*p.Scale, p.OriginY + v*p.Scale
}

const (
	// DefaultOctaves keeps the field close to single-octave Perlin noise
	// while adding a little fine detail.
	DefaultOctaves = 2

	perlinAlpha = 2.
	perlinBeta  = 2.
)

// Perlin samples gradient noise. Lattice points (integer x and y) always
// yield exactly 0.5, since gradient noise is zero there at every octave.
type Perlin struct {
	p    *perlin.Perlin
	seed int64
}

// NewPerlin creates a sampler for the given seed. octaves <= 0 selects
// DefaultOctaves.
func NewPerlin(seed int64, octaves int) *Perlin {
	if octaves <= 0 {
		octaves = DefaultOctaves
	}
	return &Perlin{
		p:    perlin.NewPerlin(perlinAlpha, perlinBeta, int32(octaves), seed),
		seed: seed,
	}
}

// Sample maps the raw [-1,1] noise to [0,1] and clamps overshoot.
func (n *Perlin) Sample(x, y float64) float64 {
	v := (n.p.Noise2D(x, y) + 1) / 2
	return math.Min(1, math.Max(0, v))
}

// Seed returns the seed the permutation table was built from.
func (n *Perlin) Seed() int64 {
	return n.seed
}
