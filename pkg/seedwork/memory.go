package seedwork

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time interface guard.
var _ Repository[Entity] = (*InMemoryRepository[Entity])(nil)

// InMemoryRepository keeps entities in an ordered slice. Every operation is a
// linear scan under a single lock, which is fine for tests and small catalogs.
type InMemoryRepository[E Entity] struct {
	mu    sync.RWMutex
	items []E
}

// NewInMemoryRepository returns a repository seeded with items, in order.
// Seed items are not checked for duplicate IDs.
func NewInMemoryRepository[E Entity](items ...E) *InMemoryRepository[E] {
	cp := make([]E, len(items))
	copy(cp, items)
	return &InMemoryRepository[E]{items: cp}
}

func (r *InMemoryRepository[E]) Insert(_ context.Context, entity E) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(entity.ID()) >= 0 {
		return fmt.Errorf("insert %q: %w", entity.ID(), ErrAlreadyExists)
	}
	r.items = append(r.items, entity)
	return nil
}

func (r *InMemoryRepository[E]) Update(_ context.Context, entity E) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(entity.ID())
	if i < 0 {
		return false, nil
	}
	r.items[i] = entity
	return true, nil
}

func (r *InMemoryRepository[E]) Delete(_ context.Context, entity E) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(entity.ID())
	if i < 0 {
		return false, nil
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return true, nil
}

func (r *InMemoryRepository[E]) FindByID(_ context.Context, id string) (E, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.items[i], true, nil
	}
	var zero E
	return zero, false, nil
}

func (r *InMemoryRepository[E]) FindAll(_ context.Context) ([]E, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(), nil
}

// Len returns the number of stored entities.
func (r *InMemoryRepository[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// snapshot copies the backing slice. Callers must hold the lock.
func (r *InMemoryRepository[E]) snapshot() []E {
	out := make([]E, len(r.items))
	copy(out, r.items)
	return out
}

// indexOf returns the position of the first entity with id, or -1.
// Callers must hold the lock.
func (r *InMemoryRepository[E]) indexOf(id string) int {
	for i := range r.items {
		if r.items[i].ID() == id {
			return i
		}
	}
	return -1
}
