package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/storage"
)

// CreateUser inserts a new user into the database.
// A duplicate email surfaces as storage.ErrConflict.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		toMillis(user.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s: %w", user.Email, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapBusy(err))
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// getUser returns nil, nil when no user matches. column is never user input.
func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE ` + column + ` = ?
	`

	user := &models.User{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

// GetUserStats summarizes a user's ratings and reviews. FavoriteCity is the
// city with the most ratings by the user, ties broken alphabetically.
func (s *SQLiteStore) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ratings WHERE user_id = ?),
			(SELECT COUNT(*) FROM reviews WHERE user_id = ?)
	`, userID, userID).Scan(&stats.RatingsCount, &stats.ReviewsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count activity: %w", err)
	}

	var n int
	err = s.db.QueryRowContext(ctx, `
		SELECT re.city, COUNT(*) AS n
		FROM ratings ra
		JOIN restaurants re ON re.id = ra.restaurant_id
		WHERE ra.user_id = ? AND re.city != ''
		GROUP BY re.city
		ORDER BY n DESC, re.city ASC
		LIMIT 1
	`, userID).Scan(&stats.FavoriteCity, &n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get favorite city: %w", err)
	}

	return stats, nil
}

// UpdateUser changes the username and/or email of an existing user.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	var (
		set  []string
		args []any
	)
	if upd.Username != nil {
		set = append(set, "username = ?")
		args = append(args, *upd.Username)
	}
	if upd.Email != nil {
		set = append(set, "email = ?")
		args = append(args, *upd.Email)
	}

	if len(set) > 0 {
		res, err := s.db.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id = ?",
			append(args, id)...,
		)
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email %s: %w", *upd.Email, storage.ErrConflict)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", mapBusy(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
		}
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return user, nil
}

// GetUserActivity returns the user's ratings and reviews with restaurant
// names, each list newest first.
func (s *SQLiteStore) GetUserActivity(ctx context.Context, userID string) (*models.UserActivity, error) {
	ratings, err := s.ListRatingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.listReviewsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.UserActivity{Ratings: ratings, Reviews: reviews}, nil
}
