package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	Username string

	// Email is the user's email address (unique). Used for login.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	CreatedAt time.Time
}

// NewUser creates a user with a fresh ID and creation time.
func NewUser(email, username, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}

// UserStats summarizes a user's activity for the profile page.
type UserStats struct {
	RatingsCount int
	ReviewsCount int

	// FavoriteCity is the city with the most ratings by this user, or empty.
	FavoriteCity string
}

// UserActivity lists a user's ratings and reviews, each newest first, with
// restaurant names filled in.
type UserActivity struct {
	Ratings []*Rating
	Reviews []*Review
}

// ProfileUpdate carries the profile fields to change. Nil fields are kept.
type ProfileUpdate struct {
	Username *string
	Email    *string
}
