package generator

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/zeusync/scatter/internal/core/cluster"
	"github.com/zeusync/scatter/internal/core/models"
	"github.com/zeusync/scatter/internal/core/noise"
	"github.com/zeusync/scatter/internal/core/spawn"
)

// Config is the generator's tunable surface. It may be replaced between
// ticks through Generator.Configure.
type Config struct {
	// MaxObjects bounds the number of live objects. 0 disables spawning.
	MaxObjects int
	// ObjectScale is passed to the placer for every new object.
	ObjectScale float64

	Noise     noise.Params
	NoiseSeed int64
	Octaves   int
	// Threshold is the minimum noise value that spawns.
	Threshold float64
	Mode      spawn.Mode

	// Colors enables the color distribution. When false no clusterer is
	// kept and no appearance is applied.
	Colors  bool
	Palette []colorful.Color
	// DistributionSeeds is the seed count the bootstrap aims for.
	DistributionSeeds int
	// NearThreshold is a squared distance in normalized placement space.
	NearThreshold          float64
	MaxBootstrapIterations int

	// Seed drives the gate and label random streams.
	Seed int64
}

// DefaultPalette is used when no palette is configured.
func DefaultPalette() []colorful.Color {
	hexes := []string{
		"#e6194b", "#3cb44b", "#ffe119", "#4363d8",
		"#f58231", "#911eb4", "#46f0f0", "#f032e6",
	}
	out := make([]colorful.Color, 0, len(hexes))
	for _, h := range hexes {
		c, _ := colorful.Hex(h)
		out = append(out, c)
	}
	return out
}

// DefaultConfig mirrors the stock generator settings.
func DefaultConfig() Config {
	return Config{
		MaxObjects:             500,
		ObjectScale:            0.2,
		Noise:                  noise.Params{Scale: 10},
		Octaves:                noise.DefaultOctaves,
		Threshold:              0.7,
		Mode:                   spawn.ModeNoise,
		Colors:                 true,
		Palette:                DefaultPalette(),
		DistributionSeeds:      8,
		NearThreshold:          0.02,
		MaxBootstrapIterations: cluster.DefaultMaxIterations,
	}
}

// Validate rejects configurations the tick path cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MaxObjects < 0 {
		errs = append(errs, fmt.Errorf("max objects must not be negative, got %d", c.MaxObjects))
	}
	if c.ObjectScale < 0 || math.IsNaN(c.ObjectScale) {
		errs = append(errs, fmt.Errorf("object scale must not be negative, got %v", c.ObjectScale))
	}
	if c.Noise.Scale < 0 || math.IsNaN(c.Noise.Scale) {
		errs = append(errs, fmt.Errorf("noise scale must not be negative, got %v", c.Noise.Scale))
	}
	if math.IsNaN(c.Noise.OriginX) || math.IsNaN(c.Noise.OriginY) || math.IsNaN(c.Threshold) {
		errs = append(errs, errors.New("noise origin and threshold must be numbers"))
	}
	if _, err := spawn.ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	if c.Colors {
		if len(c.Palette) == 0 {
			errs = append(errs, ErrEmptyPalette)
		}
		if c.DistributionSeeds < 0 {
			errs = append(errs, fmt.Errorf("distribution seed count must not be negative, got %d", c.DistributionSeeds))
		}
		if c.NearThreshold < 0 || math.IsNaN(c.NearThreshold) {
			errs = append(errs, fmt.Errorf("near threshold must not be negative, got %v", c.NearThreshold))
		}
		if c.MaxBootstrapIterations < 0 {
			errs = append(errs, fmt.Errorf("max bootstrap iterations must not be negative, got %d", c.MaxBootstrapIterations))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Color returns the palette entry for label.
func (c Config) Color(label models.Label) (colorful.Color, bool) {
	if label < 0 || int(label) >= len(c.Palette) {
		return colorful.Color{}, false
	}
	return c.Palette[label], true
}

func (c Config) clusterChanged(prev Config) bool {
	if c.Colors != prev.Colors || len(c.Palette) != len(prev.Palette) {
		return true
	}
	return c.NearThreshold != prev.NearThreshold ||
		c.DistributionSeeds != prev.DistributionSeeds ||
		c.MaxBootstrapIterations != prev.MaxBootstrapIterations
}

func (c Config) samplerChanged(prev Config) bool {
	return c.NoiseSeed != prev.NoiseSeed || c.Octaves != prev.Octaves
}
