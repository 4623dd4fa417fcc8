package registry

import (
	"errors"
	"fmt"

	"github.com/zeusync/scatter/internal/core/models"
	"github.com/zeusync/scatter/pkg/sequence"
)

// Registry is the ordered set of live object handles, oldest first. It owns
// every handle registered with it and releases them through its Destroyer.
// It is not safe for concurrent use.
type Registry struct {
	items     *sequence.Queue[models.ObjectID]
	destroyer models.Destroyer

	onEvict func(models.ObjectID)
}

// New creates an empty registry that releases handles through destroyer.
// capacityHint pre-sizes storage and does not bound the registry.
func New(destroyer models.Destroyer, capacityHint int) *Registry {
	return &Registry{
		items:     sequence.NewQueue[models.ObjectID](capacityHint),
		destroyer: destroyer,
	}
}

// OnEvict registers a callback invoked for every handle removed by
// EnforceCapacity, MakeRoom or Clear, after its destroyer call.
func (r *Registry) OnEvict(fn func(models.ObjectID)) {
	r.onEvict = fn
}

// Register appends id as the newest handle.
func (r *Registry) Register(id models.ObjectID) {
	r.items.PushBack(id)
}

// EnforceCapacity releases the oldest handles until at most maxCount remain.
// A negative maxCount drains the registry. A handle whose destroyer call
// fails is still removed; all failures are joined into the returned error.
func (r *Registry) EnforceCapacity(maxCount int) (int, error) {
	if maxCount < 0 {
		maxCount = 0
	}

	var (
		evicted int
		errs    error
	)
	for r.items.Len() > maxCount {
		id, _ := r.items.PopFront()
		if err := r.release(id); err != nil {
			errs = errors.Join(errs, err)
		}
		evicted++
	}
	return evicted, errs
}

// MakeRoom evicts so that one more Register keeps the registry within
// maxCount.
func (r *Registry) MakeRoom(maxCount int) (int, error) {
	return r.EnforceCapacity(maxCount - 1)
}

// Clear releases every handle, newest first.
func (r *Registry) Clear() (int, error) {
	var (
		cleared int
		errs    error
	)
	for !r.items.IsEmpty() {
		id, _ := r.items.PopBack()
		if err := r.release(id); err != nil {
			errs = errors.Join(errs, err)
		}
		cleared++
	}
	return cleared, errs
}

func (r *Registry) Len() int {
	return r.items.Len()
}

// Items returns a copy of the handles, oldest first.
func (r *Registry) Items() []models.ObjectID {
	return r.items.Slice()
}

// Oldest returns the handle that the next eviction would release.
func (r *Registry) Oldest() (models.ObjectID, bool) {
	return r.items.Front()
}

func (r *Registry) Contains(id models.ObjectID) bool {
	for i := 0; i < r.items.Len(); i++ {
		if v, _ := r.items.At(i); v == id {
			return true
		}
	}
	return false
}

func (r *Registry) release(id models.ObjectID) error {
	var err error
	if r.destroyer != nil {
		if derr := r.destroyer.DestroyObject(id); derr != nil {
			err = fmt.Errorf("destroy object %d: %w", id, derr)
		}
	}
	if r.onEvict != nil {
		r.onEvict(id)
	}
	return err
}
