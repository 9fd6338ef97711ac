// Package catalog serves restaurant reads through the aggregate cache and
// loads the catalog seed.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/dineout/internal/cache"
	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/storage"
)

// Reader is the read path for restaurants. Detail reads go through the
// cache; listings always hit the store.
type Reader struct {
	store  storage.RestaurantStore
	cache  cache.RestaurantCache
	logger *slog.Logger
}

// NewReader creates a Reader.
func NewReader(store storage.RestaurantStore, c cache.RestaurantCache, logger *slog.Logger) *Reader {
	return &Reader{store: store, cache: c, logger: logger}
}

// Get returns a restaurant with its aggregate and review count.
// Cache errors fall back to the store.
func (r *Reader) Get(ctx context.Context, id string) (*models.Restaurant, error) {
	rest, ok, err := r.cache.Get(ctx, id)
	if err != nil {
		r.logger.WarnContext(ctx, "Cache read failed", "restaurant_id", id, "error", err)
	}
	if !ok {
		rest, err = r.store.GetRestaurant(ctx, id)
		if err != nil {
			return nil, err
		}
		r.Update(ctx, rest)
	}

	n, err := r.store.CountReviews(ctx, id)
	if err != nil {
		return nil, err
	}
	rest.ReviewCount = n
	return rest, nil
}

// Update writes a freshly committed aggregate to the cache. If the write
// fails the entry is dropped so the next read goes to the store.
func (r *Reader) Update(ctx context.Context, rest *models.Restaurant) {
	if err := r.cache.Put(ctx, rest); err != nil {
		r.logger.WarnContext(ctx, "Cache write failed, invalidating",
			"restaurant_id", rest.ID,
			"version", rest.Version,
			"error", err,
		)
		if err := r.cache.Delete(ctx, rest.ID); err != nil {
			r.logger.ErrorContext(ctx, "Cache invalidation failed", "restaurant_id", rest.ID, "error", err)
		}
	}
}

// Refresh reloads a restaurant from the store into the cache.
func (r *Reader) Refresh(ctx context.Context, id string) (*models.Restaurant, error) {
	rest, err := r.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Update(ctx, rest)
	return rest, nil
}

func (r *Reader) List(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error) {
	return r.store.ListRestaurants(ctx, f)
}

func (r *Reader) Cities(ctx context.Context) ([]models.CityCount, error) {
	return r.store.ListCities(ctx)
}

func (r *Reader) Cuisines(ctx context.Context) ([]models.CuisineCount, error) {
	return r.store.ListCuisines(ctx)
}

// Minimum votes and result size for the top-rated listing.
const (
	TopRatedMinVotes = 5
	TopRatedLimit    = 10
)

// TopRated returns the best rated restaurants with enough votes to rank.
func (r *Reader) TopRated(ctx context.Context) ([]*models.Restaurant, error) {
	return r.store.TopRated(ctx, TopRatedMinVotes, TopRatedLimit)
}

func (r *Reader) CityStats(ctx context.Context) ([]models.CityStats, error) {
	return r.store.CityStats(ctx)
}

// Seed saves catalog entries and drops their cache entries.
// Existing aggregates are kept.
func (r *Reader) Seed(ctx context.Context, entries []models.Restaurant) (int, error) {
	for i := range entries {
		e := &entries[i]
		if err := r.store.SaveRestaurant(ctx, e); err != nil {
			return i, fmt.Errorf("seed %s: %w", e.ID, err)
		}
		if err := r.cache.Delete(ctx, e.ID); err != nil {
			r.logger.WarnContext(ctx, "Cache invalidation failed", "restaurant_id", e.ID, "error", err)
		}
	}
	return len(entries), nil
}
