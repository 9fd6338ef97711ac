package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/dineout/internal/aggregate"
	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/storage"
)

// UpsertRating writes the rating and recomputes the restaurant aggregate in
// one transaction:
//
//  1. read the restaurant version and stored aggregate (ErrNotFound if missing)
//  2. insert or replace the (user, restaurant) rating
//  3. recompute count and sum from every current rating
//  4. compare-and-swap the aggregate on the version read in step 1
//
// A failed step rolls back everything, so the aggregate never reflects a
// rating that was not stored, and vice versa. The recount is authoritative;
// when it disagrees with the stored aggregate advanced by this one write,
// the result is flagged as Drift.
func (s *SQLiteStore) UpsertRating(ctx context.Context, userID, restaurantID string, value int, at time.Time) (*models.RatingWrite, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", mapBusy(err))
	}
	defer tx.Rollback()

	var (
		version int64
		prior   aggregate.Summary
	)
	err = tx.QueryRowContext(ctx,
		"SELECT version, vote_count, rating_sum FROM restaurants WHERE id = ?",
		restaurantID,
	).Scan(&version, &prior.Count, &prior.Sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("restaurant %s: %w", restaurantID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read restaurant: %w", mapBusy(err))
	}

	var (
		ratingID string
		previous int
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, rating_value FROM ratings WHERE user_id = ? AND restaurant_id = ?",
		userID, restaurantID,
	).Scan(&ratingID, &previous)
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return nil, fmt.Errorf("failed to read rating: %w", err)
	}
	expected := prior.Upsert(&previous, value)
	if created {
		ratingID = uuid.New().String()
		expected = prior.Upsert(nil, value)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratings (id, user_id, restaurant_id, rating_value, rated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, restaurant_id) DO UPDATE SET
			rating_value = excluded.rating_value,
			rated_at = excluded.rated_at
	`, ratingID, userID, restaurantID, value, toMillis(at))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rating: %w", mapBusy(err))
	}

	var sum aggregate.Summary
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(rating_value), 0) FROM ratings WHERE restaurant_id = ?",
		restaurantID,
	).Scan(&sum.Count, &sum.Sum)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute aggregate: %w", err)
	}

	var avg sql.NullFloat64
	if mean, ok := sum.Mean(); ok {
		avg = sql.NullFloat64{Float64: mean, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE restaurants
		SET vote_count = ?, rating_sum = ?, avg_rating = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, sum.Count, sum.Sum, avg, restaurantID, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update aggregate: %w", mapBusy(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update aggregate: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("restaurant %s version %d: %w", restaurantID, version, storage.ErrConflict)
	}

	restaurant, err := getRestaurant(ctx, tx, restaurantID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", mapBusy(err))
	}

	return &models.RatingWrite{
		Rating: models.Rating{
			ID:             ratingID,
			UserID:         userID,
			RestaurantID:   restaurantID,
			RestaurantName: restaurant.Name,
			Value:          value,
			RatedAt:        fromMillis(toMillis(at)),
		},
		Created:    created,
		Restaurant: *restaurant,
		Drift:      sum != expected,
	}, nil
}

// GetRating returns the user's rating for a restaurant, or nil if none.
func (s *SQLiteStore) GetRating(ctx context.Context, userID, restaurantID string) (*models.Rating, error) {
	r := &models.Rating{}
	var ratedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT ra.id, ra.user_id, ra.restaurant_id, re.name, ra.rating_value, ra.rated_at
		FROM ratings ra
		JOIN restaurants re ON re.id = ra.restaurant_id
		WHERE ra.user_id = ? AND ra.restaurant_id = ?
	`, userID, restaurantID).Scan(&r.ID, &r.UserID, &r.RestaurantID, &r.RestaurantName, &r.Value, &ratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	r.RatedAt = fromMillis(ratedAt)
	return r, nil
}

// ListRatingsByUser returns all ratings by a user, newest first.
func (s *SQLiteStore) ListRatingsByUser(ctx context.Context, userID string) ([]*models.Rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ra.id, ra.user_id, ra.restaurant_id, re.name, ra.rating_value, ra.rated_at
		FROM ratings ra
		JOIN restaurants re ON re.id = ra.restaurant_id
		WHERE ra.user_id = ?
		ORDER BY ra.rated_at DESC, ra.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var out []*models.Rating
	for rows.Next() {
		r := &models.Rating{}
		var ratedAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.RestaurantID, &r.RestaurantName, &r.Value, &ratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		r.RatedAt = fromMillis(ratedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return out, nil
}
