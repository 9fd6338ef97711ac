// Package cache holds restaurant aggregates for read-your-writes reads and
// the Redis-backed submission guard.
package cache

import (
	"context"
	"sync"

	"github.com/mmynk/dineout/internal/models"
)

// RestaurantCache stores restaurant records keyed by ID.
//
// Put is version-monotonic: a record older than the cached one is ignored,
// so a slow writer can never roll the cache back past a newer aggregate.
type RestaurantCache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, id string) (r *models.Restaurant, ok bool, err error)
	Put(ctx context.Context, r *models.Restaurant) error
	Delete(ctx context.Context, id string) error
}

// Memory is an in-process RestaurantCache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.Restaurant
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]models.Restaurant)}
}

func (m *Memory) Get(_ context.Context, id string) (*models.Restaurant, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entries[id]
	if !ok {
		return nil, false, nil
	}
	return clone(r), true, nil
}

func (m *Memory) Put(_ context.Context, r *models.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[r.ID]; ok && cur.Version > r.Version {
		return nil
	}
	m.entries[r.ID] = *clone(*r)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func clone(r models.Restaurant) *models.Restaurant {
	r.Cuisines = append([]string(nil), r.Cuisines...)
	return &r
}
