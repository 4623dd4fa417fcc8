package generator

import (
	"github.com/zeusync/scatter/internal/core/geom"
	"github.com/zeusync/scatter/internal/core/models"
)

// Event types published on the generator's bus.
const (
	EventObjectSpawned       = "object.spawned"
	EventObjectEvicted       = "object.evicted"
	EventObjectsCleared      = "objects.cleared"
	EventClusterBootstrapped = "cluster.bootstrapped"
)

// SpawnedEvent is the payload of EventObjectSpawned.
type SpawnedEvent struct {
	ObjectID models.ObjectID `json:"object_id"`
	Position geom.Vec3       `json:"position"`
	U        float64         `json:"u"`
	V        float64         `json:"v"`
	Noise    float64         `json:"noise"`
	Scale    float64         `json:"scale"`
	Label    models.Label    `json:"label"`
	Color    string          `json:"color,omitempty"`
}

// EvictedEvent is the payload of EventObjectEvicted.
type EvictedEvent struct {
	ObjectID models.ObjectID `json:"object_id"`
}

// ClearedEvent is the payload of EventObjectsCleared.
type ClearedEvent struct {
	Count int `json:"count"`
}

// BootstrappedEvent is the payload of EventClusterBootstrapped.
type BootstrappedEvent struct {
	Seeds      int `json:"seeds"`
	Target     int `json:"target"`
	Iterations int `json:"iterations"`
}
