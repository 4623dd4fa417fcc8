package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/zeusync/scatter/internal/core/geom"
	"github.com/zeusync/scatter/internal/core/models"
)

var ErrUnknownObject = errors.New("unknown object")

var _ models.Scene = (*Scene)(nil)

// Object is the scene's record of a placed primitive.
type Object struct {
	ID       models.ObjectID `json:"id"`
	Position geom.Vec3       `json:"position"`
	Scale    float64         `json:"scale"`
	Label    models.Label    `json:"label"`
	Color    colorful.Color  `json:"-"`
	Colored  bool            `json:"colored"`
}

// Viewport maps normalized screen fractions to world coordinates, the way a
// camera unprojects a screen point. Objects are placed halfway between the
// near and far planes in front of the camera.
type Viewport struct {
	Width   float64 `yaml:"width" json:"width"`
	Height  float64 `yaml:"height" json:"height"`
	CameraZ float64 `yaml:"camera_z" json:"camera_z"`
	Near    float64 `yaml:"near" json:"near"`
	Far     float64 `yaml:"far" json:"far"`
}

// DefaultViewport is a 16:9 view with depth range [0.3, 1000].
func DefaultViewport() Viewport {
	return Viewport{Width: 16, Height: 9, CameraZ: -10, Near: 0.3, Far: 1000}
}

// MapPosition centers the unit square on the camera axis.
func (v Viewport) MapPosition(u, w float64) geom.Vec3 {
	return geom.Vec3{
		X: (u - 0.5) * v.Width,
		Y: (w - 0.5) * v.Height,
		Z: v.CameraZ + (v.Far-v.Near)/2,
	}
}

// Project inverts MapPosition for X and Y.
func (v Viewport) Project(p geom.Vec3) (u, w float64) {
	if v.Width != 0 {
		u = p.X/v.Width + 0.5
	}
	if v.Height != 0 {
		w = p.Y/v.Height + 0.5
	}
	return u, w
}

// Scene is an in-memory object store implementing every service the
// generator needs. It is safe for concurrent use so viewers can read while
// the generator ticks.
type Scene struct {
	mu       sync.RWMutex
	viewport Viewport
	nextID   models.ObjectID
	objects  map[models.ObjectID]*Object

	created   uint64
	destroyed uint64
}

func New(viewport Viewport) *Scene {
	return &Scene{
		viewport: viewport,
		objects:  make(map[models.ObjectID]*Object),
	}
}

func (s *Scene) Viewport() Viewport {
	return s.viewport
}

func (s *Scene) MapPosition(u, v float64) geom.Vec3 {
	return s.viewport.MapPosition(u, v)
}

// CreateObject adds a unit-scale object at the origin.
func (s *Scene) CreateObject() (models.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.objects[id] = &Object{ID: id, Scale: 1, Label: models.NoLabel}
	s.created++
	return id, nil
}

// PlaceObject moves the object and multiplies its scale by scale.
func (s *Scene) PlaceObject(id models.ObjectID, position geom.Vec3, scale float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	obj.Position = position
	obj.Scale *= scale
	return nil
}

func (s *Scene) DestroyObject(id models.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	delete(s.objects, id)
	s.destroyed++
	return nil
}

func (s *Scene) SetAppearance(id models.ObjectID, label models.Label, color colorful.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	obj.Label = label
	obj.Color = color
	obj.Colored = true
	return nil
}

// Get returns a copy of one object.
func (s *Scene) Get(id models.ObjectID) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[id]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// Snapshot copies all objects ordered by ID.
func (s *Scene) Snapshot() []Object {
	s.mu.RLock()
	out := make([]Object, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, *obj)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Counters returns how many objects were ever created and destroyed.
func (s *Scene) Counters() (created, destroyed uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, s.destroyed
}
