package registry

import (
	"context"
	"sync"
)

// Guard admits at most one in-flight submission per key.
type Guard interface {
	// TryAcquire returns ok=false without blocking when key is held.
	// release must be called exactly once when ok is true.
	TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// MemoryGuard is a Guard for a single server instance.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) TryAcquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true, nil
}

func guardKey(kind, userID, restaurantID string) string {
	return kind + ":" + userID + ":" + restaurantID
}
