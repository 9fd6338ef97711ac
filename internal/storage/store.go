// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/dineout/internal/models"
)

var (
	// ErrNotFound is returned when the referenced restaurant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a concurrent writer changed the restaurant
	// aggregate between read and write, or the database stayed locked past
	// its busy timeout. The caller may retry with fresh state.
	ErrConflict = errors.New("concurrent modification")
)

// RestaurantStore covers the catalog and its aggregate.
type RestaurantStore interface {
	// SaveRestaurant inserts or updates catalog fields. Aggregate fields
	// (VoteCount, RatingSum, Version) are never touched.
	SaveRestaurant(ctx context.Context, r *models.Restaurant) error

	// GetRestaurant returns ErrNotFound when id is unknown.
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)

	ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error)
	ListCities(ctx context.Context) ([]models.CityCount, error)
	ListCuisines(ctx context.Context) ([]models.CuisineCount, error)
	CountReviews(ctx context.Context, restaurantID string) (int, error)

	// TopRated returns up to limit restaurants with at least minVotes votes,
	// highest mean first, then most votes.
	TopRated(ctx context.Context, minVotes, limit int) ([]*models.Restaurant, error)

	// CityStats returns one summary per city, ordered by city name.
	CityStats(ctx context.Context) ([]models.CityStats, error)
}

// RatingStore persists ratings together with the aggregate they derive.
type RatingStore interface {
	// UpsertRating creates or replaces the (userID, restaurantID) rating and
	// recomputes the restaurant aggregate in the same transaction.
	// Returns ErrNotFound for an unknown restaurant and ErrConflict when the
	// aggregate version moved underneath the transaction.
	UpsertRating(ctx context.Context, userID, restaurantID string, value int, at time.Time) (*models.RatingWrite, error)

	// GetRating returns nil, nil when the user has not rated the restaurant.
	GetRating(ctx context.Context, userID, restaurantID string) (*models.Rating, error)

	// ListRatingsByUser returns the user's ratings, newest first.
	ListRatingsByUser(ctx context.Context, userID string) ([]*models.Rating, error)
}

// ReviewStore persists reviews. Reviews never touch the aggregate.
type ReviewStore interface {
	// UpsertReview creates or replaces the (UserID, RestaurantID) review and
	// sets review.ID. created reports whether a new row was inserted.
	UpsertReview(ctx context.Context, review *models.Review) (created bool, err error)

	// GetReview returns nil, nil when the user has not reviewed the restaurant.
	GetReview(ctx context.Context, userID, restaurantID string) (*models.Review, error)

	// ListReviewsByRestaurant returns reviews with usernames, newest first.
	ListReviewsByRestaurant(ctx context.Context, restaurantID string) ([]*models.Review, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserStats(ctx context.Context, userID string) (*models.UserStats, error)

	// UpdateUser applies upd and returns the stored user. Returns ErrNotFound
	// for an unknown id and ErrConflict when the email belongs to another user.
	UpdateUser(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)

	// GetUserActivity returns the user's ratings and reviews, newest first.
	GetUserActivity(ctx context.Context, userID string) (*models.UserActivity, error)
}

// Store defines the full storage surface.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the registry or service layer.
type Store interface {
	RestaurantStore
	RatingStore
	ReviewStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}
