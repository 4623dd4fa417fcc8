package cluster

import (
	"github.com/zeusync/scatter/internal/core/geom"
	"github.com/zeusync/scatter/internal/core/observability/log"
)

// DefaultMaxIterations caps bootstrap sampling when the threshold or
// geometry make reaching the target slow or impossible.
const DefaultMaxIterations = 10000

// BootstrapResult describes how far a bootstrap got.
type BootstrapResult struct {
	Seeds      int
	Target     int
	Iterations int
}

// Converged reports whether the target seed count was reached.
func (r BootstrapResult) Converged() bool {
	return r.Seeds >= r.Target
}

// Bootstrap grows the seed set toward target by clustering uniformly random
// positions. The first seed takes a random label and the first drawn
// position. Sampling stops once target seeds exist or after maxIterations
// updates, whichever comes first; maxIterations <= 0 selects
// DefaultMaxIterations. Existing seeds are kept.
func (c *Clusterer) Bootstrap(target, maxIterations int) (BootstrapResult, error) {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	if len(c.seeds) == 0 {
		label := c.randomLabel()
		c.seeds = append(c.seeds, Seed{Label: label, Position: c.randomPosition()})
	}

	iterations := 0
	for len(c.seeds) < target && iterations < maxIterations {
		if _, err := c.Update(c.randomPosition()); err != nil {
			return BootstrapResult{Seeds: len(c.seeds), Target: target, Iterations: iterations}, err
		}
		iterations++
	}

	return BootstrapResult{Seeds: len(c.seeds), Target: target, Iterations: iterations}, nil
}

func (c *Clusterer) randomPosition() geom.Vec3 {
	u := c.rnd.Float64()
	v := c.rnd.Float64()
	return geom.Vec3{X: u, Y: v}
}

// Bootstrapper runs a one-time bootstrap and reports the outcome.
type Bootstrapper struct {
	TargetSeeds   int
	MaxIterations int
	Logger        log.Log
}

// Run bootstraps c. A shortfall is logged, not returned as an error.
func (b Bootstrapper) Run(c *Clusterer) (BootstrapResult, error) {
	res, err := c.Bootstrap(b.TargetSeeds, b.MaxIterations)
	if err != nil {
		return res, err
	}

	logger := b.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	fields := []log.Field{
		log.Int("seeds", res.Seeds),
		log.Int("target", res.Target),
		log.Int("iterations", res.Iterations),
	}
	if !res.Converged() {
		logger.Warn("Color distribution bootstrap stopped short of target", fields...)
	} else {
		logger.Info("Color distribution bootstrapped", fields...)
	}
	return res, nil
}
