package cluster

import (
	"fmt"
	"math"

	"github.com/zeusync/scatter/internal/core/geom"
	"github.com/zeusync/scatter/internal/core/models"
)

// Seed anchors a region of the placement plane to one label.
type Seed struct {
	Label    models.Label `json:"label"`
	Position geom.Vec3    `json:"position"`
}

// Clusterer assigns labels to positions by incremental nearest-seed
// clustering. Distances are squared Euclidean and NearThreshold is compared
// against them directly, so the effective near radius is
// sqrt(NearThreshold). Positions are expected in the same space the seeds
// were created in (normalized [0,1)² for the generator); Z is ignored.
//
// Clusterer is not safe for concurrent use.
type Clusterer struct {
	seeds         []Seed
	nearThreshold float64
	labelCount    int
	rnd           models.RandomSource
}

// New returns an empty clusterer. labelCount is the number of labels new
// seeds are drawn from; rnd picks them.
func New(nearThreshold float64, labelCount int, rnd models.RandomSource) (*Clusterer, error) {
	if nearThreshold < 0 || math.IsNaN(nearThreshold) {
		return nil, fmt.Errorf("%w: %v", ErrNegativeThreshold, nearThreshold)
	}
	if labelCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoLabels, labelCount)
	}
	return &Clusterer{
		nearThreshold: nearThreshold,
		labelCount:    labelCount,
		rnd:           rnd,
	}, nil
}

// Update returns the label for position. When no seed lies within the near
// threshold a new seed is created at position with a random label; otherwise
// the nearest seed (first in creation order on ties) moves to the midpoint
// of its old position and position and keeps its label.
func (c *Clusterer) Update(position geom.Vec3) (models.Label, error) {
	if len(c.seeds) == 0 {
		return models.NoLabel, ErrNoSeeds
	}
	position.Z = 0

	idx, dist := c.nearest(position)
	if dist > c.nearThreshold {
		label := c.randomLabel()
		c.seeds = append(c.seeds, Seed{Label: label, Position: position})
		return label, nil
	}

	seed := &c.seeds[idx]
	seed.Position = geom.Midpoint(seed.Position, position)
	return seed.Label, nil
}

// Nearest reports the index and squared distance of the seed closest to
// position without modifying any state.
func (c *Clusterer) Nearest(position geom.Vec3) (int, float64, error) {
	if len(c.seeds) == 0 {
		return -1, 0, ErrNoSeeds
	}
	position.Z = 0
	idx, dist := c.nearest(position)
	return idx, dist, nil
}

// AddSeed appends a seed as-is.
func (c *Clusterer) AddSeed(seed Seed) error {
	if seed.Label < 0 || int(seed.Label) >= c.labelCount {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrLabelOutOfRange, seed.Label, c.labelCount)
	}
	seed.Position.Z = 0
	c.seeds = append(c.seeds, seed)
	return nil
}

// Seeds returns a copy of the seeds in creation order.
func (c *Clusterer) Seeds() []Seed {
	out := make([]Seed, len(c.seeds))
	copy(out, c.seeds)
	return out
}

func (c *Clusterer) SeedCount() int {
	return len(c.seeds)
}

func (c *Clusterer) NearThreshold() float64 {
	return c.nearThreshold
}

func (c *Clusterer) LabelCount() int {
	return c.labelCount
}

// Reset drops every seed.
func (c *Clusterer) Reset() {
	c.seeds = c.seeds[:0]
}

func (c *Clusterer) nearest(position geom.Vec3) (int, float64) {
	minIdx := 0
	minDist := geom.DistanceSq(position, c.seeds[0].Position)
	for i := 1; i < len(c.seeds); i++ {
		if d := geom.DistanceSq(position, c.seeds[i].Position); d < minDist {
			minDist = d
			minIdx = i
		}
	}
	return minIdx, minDist
}

func (c *Clusterer) randomLabel() models.Label {
	return models.Label(c.rnd.IntN(c.labelCount))
}
