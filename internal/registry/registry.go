// Package registry implements rating and review submission: validation,
// authentication, per-key admission, and the store write that keeps each
// restaurant's aggregate consistent with its ratings.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/dineout/internal/events"
	"github.com/mmynk/dineout/internal/metrics"
	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/storage"
)

// AggregateSink receives committed aggregates, normally the catalog cache.
type AggregateSink interface {
	Update(ctx context.Context, r *models.Restaurant)
}

// Dependencies are shared by both registries.
type Dependencies struct {
	Ratings   storage.RatingStore
	Reviews   storage.ReviewStore
	Sink      AggregateSink
	Guard     Guard
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

func (d *Dependencies) defaults() {
	if d.Guard == nil {
		d.Guard = NewMemoryGuard()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Publisher == nil {
		d.Publisher = events.NewLoggingPublisher(d.Logger)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewUnregistered()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// admit claims the in-flight guard for (kind, user, restaurant).
func (d *Dependencies) admit(ctx context.Context, kind, userID, restaurantID string) (func(), error) {
	release, ok, err := d.Guard.TryAcquire(ctx, guardKey(kind, userID, restaurantID))
	if err != nil {
		return nil, fmt.Errorf("admit %s submission: %w", kind, err)
	}
	if !ok {
		d.Metrics.ObserveConflict("in_flight")
		return nil, ErrInFlight
	}
	return release, nil
}

// translate maps store errors onto registry errors.
func translate(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func outcome(created bool, err error) string {
	switch {
	case err == nil && created:
		return "created"
	case err == nil:
		return "replaced"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrAuth), errors.Is(err, ErrNotFound), errors.Is(err, ErrInFlight):
		return "rejected"
	}
	return "failed"
}
