package rng

import (
	"math/rand/v2"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// New returns a deterministic PCG-backed generator for seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// NewStream returns an independent generator for a named stream of the same
// seed, so the spawn gate and the label picker do not share a sequence.
func NewStream(seed int64, stream string) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), xxhash.Sum64String(stream)))
}

// SeedFromString turns a world name into a seed. Strings that parse as
// integers are used verbatim so numeric seeds stay readable in configs.
func SeedFromString(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return int64(xxhash.Sum64String(s))
}
