package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/storage"
)

// UpsertReview inserts or replaces a review. ReviewedAt is always written,
// even when the text is unchanged.
func (s *SQLiteStore) UpsertReview(ctx context.Context, review *models.Review) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", mapBusy(err))
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM restaurants WHERE id = ?", review.RestaurantID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("restaurant %s: %w", review.RestaurantID, storage.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read restaurant: %w", mapBusy(err))
	}

	var id string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM reviews WHERE user_id = ? AND restaurant_id = ?",
		review.UserID, review.RestaurantID,
	).Scan(&id)
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return false, fmt.Errorf("failed to read review: %w", err)
	}
	if created {
		id = uuid.New().String()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, restaurant_id, review_text, reviewed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, restaurant_id) DO UPDATE SET
			review_text = excluded.review_text,
			reviewed_at = excluded.reviewed_at
	`, id, review.UserID, review.RestaurantID, review.Text, toMillis(review.ReviewedAt))
	if err != nil {
		return false, fmt.Errorf("failed to upsert review: %w", mapBusy(err))
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", mapBusy(err))
	}

	review.ID = id
	review.ReviewedAt = fromMillis(toMillis(review.ReviewedAt))
	return created, nil
}

// GetReview returns the user's review for a restaurant, or nil if none.
func (s *SQLiteStore) GetReview(ctx context.Context, userID, restaurantID string) (*models.Review, error) {
	r := &models.Review{}
	var reviewedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT rv.id, rv.user_id, rv.restaurant_id, COALESCE(u.username, ''), rv.review_text, rv.reviewed_at
		FROM reviews rv
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE rv.user_id = ? AND rv.restaurant_id = ?
	`, userID, restaurantID).Scan(&r.ID, &r.UserID, &r.RestaurantID, &r.Username, &r.Text, &reviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	r.ReviewedAt = fromMillis(reviewedAt)
	return r, nil
}

// ListReviewsByRestaurant returns a restaurant's reviews, newest first.
func (s *SQLiteStore) ListReviewsByRestaurant(ctx context.Context, restaurantID string) ([]*models.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rv.id, rv.user_id, rv.restaurant_id, COALESCE(u.username, ''), rv.review_text, rv.reviewed_at
		FROM reviews rv
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE rv.restaurant_id = ?
		ORDER BY rv.reviewed_at DESC, rv.id ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		r := &models.Review{}
		var reviewedAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.RestaurantID, &r.Username, &r.Text, &reviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.ReviewedAt = fromMillis(reviewedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return out, nil
}

// listReviewsByUser returns a user's reviews with restaurant names, newest
// first.
func (s *SQLiteStore) listReviewsByUser(ctx context.Context, userID string) ([]*models.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rv.id, rv.user_id, rv.restaurant_id, COALESCE(u.username, ''), re.name, rv.review_text, rv.reviewed_at
		FROM reviews rv
		JOIN restaurants re ON re.id = rv.restaurant_id
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE rv.user_id = ?
		ORDER BY rv.reviewed_at DESC, rv.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		r := &models.Review{}
		var reviewedAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.RestaurantID, &r.Username, &r.RestaurantName, &r.Text, &reviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.ReviewedAt = fromMillis(reviewedAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return out, nil
}
