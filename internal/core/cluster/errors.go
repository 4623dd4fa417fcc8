package cluster

import "errors"

var (
	// ErrNoSeeds is returned by Update when the seed list is empty. After a
	// bootstrap this never happens; seeing it means the clusterer was used
	// before Bootstrap or AddSeed.
	ErrNoSeeds = errors.New("cluster has no seeds")

	ErrNegativeThreshold = errors.New("near threshold must not be negative")
	ErrNoLabels          = errors.New("label count must be positive")
	ErrLabelOutOfRange   = errors.New("label out of range")
)
