package models

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/zeusync/scatter/internal/core/geom"
)

// ObjectID is an opaque handle to a placed object. The scene that created it
// owns its meaning; the core only orders, stores and releases handles.
type ObjectID uint64

// Label identifies a color cluster. It indexes into the configured palette.
type Label int

// NoLabel marks objects produced without color distribution.
const NoLabel Label = -1

// RandomSource provides uniform samples. *rand.Rand from math/rand/v2
// satisfies it.
type RandomSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
}

// PositionMapper maps a normalized [0,1)² sample to a placement coordinate.
type PositionMapper interface {
	MapPosition(u, v float64) geom.Vec3
}

// ObjectFactory creates a renderable primitive at a default pose.
type ObjectFactory interface {
	CreateObject() (ObjectID, error)
}

// Placer positions and sizes an object.
type Placer interface {
	PlaceObject(id ObjectID, position geom.Vec3, scale float64) error
}

// Destroyer releases an object.
type Destroyer interface {
	DestroyObject(id ObjectID) error
}

// AppearanceSetter applies a label color to a single object instance without
// touching shared material state.
type AppearanceSetter interface {
	SetAppearance(id ObjectID, label Label, color colorful.Color) error
}

// Scene bundles every external service the generator calls into.
type Scene interface {
	PositionMapper
	ObjectFactory
	Placer
	Destroyer
	AppearanceSetter
}
