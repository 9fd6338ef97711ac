package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/mmynk/dineout/internal/aggregate"
	"github.com/mmynk/dineout/internal/events"
	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/storage"
)

// maxRatingAttempts bounds retries after a version conflict.
const maxRatingAttempts = 2

// RatingResult is the acknowledged state after a rating write.
type RatingResult struct {
	Rating     models.Rating
	Created    bool
	Restaurant models.Restaurant
}

// VoteCount is the number of distinct raters after the write.
func (r *RatingResult) VoteCount() int {
	return r.Restaurant.VoteCount
}

// AvgRating is the exact mean after the write, nil when undefined.
func (r *RatingResult) AvgRating() *float64 {
	mean, ok := summary(&r.Restaurant).Mean()
	if !ok {
		return nil
	}
	return &mean
}

func summary(r *models.Restaurant) aggregate.Summary {
	return aggregate.Summary{Count: r.VoteCount, Sum: r.RatingSum}
}

// RatingRegistry owns rating submissions.
type RatingRegistry struct {
	deps  Dependencies
	locks *KeyedMutex
}

func NewRatingRegistry(deps Dependencies) *RatingRegistry {
	deps.defaults()
	return &RatingRegistry{deps: deps, locks: NewKeyedMutex()}
}

// SubmitRating creates or replaces the caller's rating for a restaurant and
// returns the aggregate committed with it. userID is the authenticated
// caller; an empty userID is ErrAuth.
func (r *RatingRegistry) SubmitRating(ctx context.Context, userID, restaurantID string, value int) (*RatingResult, error) {
	res, err := r.submit(ctx, userID, strings.TrimSpace(restaurantID), value)
	r.deps.Metrics.ObserveRating(outcome(res != nil && res.Created, err))
	if err != nil {
		r.deps.Logger.WarnContext(ctx, "Rating rejected",
			"user_id", userID,
			"restaurant_id", restaurantID,
			"error", err,
		)
		return nil, err
	}
	return res, nil
}

func (r *RatingRegistry) submit(ctx context.Context, userID, restaurantID string, value int) (*RatingResult, error) {
	if userID == "" {
		return nil, ErrAuth
	}
	if restaurantID == "" {
		return nil, invalid("restaurant_id", "is required")
	}
	if err := aggregate.Validate(value); err != nil {
		return nil, invalid("rating_value", err.Error())
	}

	release, err := r.deps.admit(ctx, "rating", userID, restaurantID)
	if err != nil {
		return nil, err
	}
	defer release()

	w, err := r.write(ctx, userID, restaurantID, value)
	if err != nil {
		return nil, err
	}

	r.deps.Logger.InfoContext(ctx, "Rating stored",
		"user_id", userID,
		"restaurant_id", restaurantID,
		"created", w.Created,
		"vote_count", w.Restaurant.VoteCount,
		"version", w.Restaurant.Version,
	)

	err = events.PublishRating(ctx, r.deps.Publisher, events.RatingSubmitted{
		RestaurantID: restaurantID,
		UserID:       userID,
		Value:        value,
		Created:      w.Created,
		VoteCount:    w.Restaurant.VoteCount,
		RatingSum:    w.Restaurant.RatingSum,
		Version:      w.Restaurant.Version,
		OccurredAt:   w.Rating.RatedAt,
	})
	if err != nil {
		r.deps.Logger.ErrorContext(ctx, "Rating event not published", "restaurant_id", restaurantID, "error", err)
	}

	return &RatingResult{Rating: w.Rating, Created: w.Created, Restaurant: w.Restaurant}, nil
}

// write runs the store transaction under the restaurant lock and pushes the
// committed aggregate to the sink before the lock is released, so no reader
// can observe the sink move backwards.
func (r *RatingRegistry) write(ctx context.Context, userID, restaurantID string, value int) (*models.RatingWrite, error) {
	unlock := r.locks.Lock(restaurantID)
	defer unlock()

	var (
		w   *models.RatingWrite
		err error
	)
	for attempt := 1; attempt <= maxRatingAttempts; attempt++ {
		w, err = r.deps.Ratings.UpsertRating(ctx, userID, restaurantID, value, r.deps.Now())
		if !errors.Is(err, storage.ErrConflict) {
			break
		}
		r.deps.Metrics.ObserveConflict("version")
		r.deps.Logger.DebugContext(ctx, "Rating write conflicted", "restaurant_id", restaurantID, "attempt", attempt)
	}
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			r.deps.Metrics.ObserveConflict("retry_exhausted")
		}
		return nil, translate(err)
	}

	if w.Drift {
		r.deps.Logger.WarnContext(ctx, "Aggregate drift corrected by recount",
			"restaurant_id", restaurantID,
			"vote_count", w.Restaurant.VoteCount,
			"rating_sum", w.Restaurant.RatingSum,
		)
	}

	if r.deps.Sink != nil {
		r.deps.Sink.Update(ctx, &w.Restaurant)
	}
	return w, nil
}
