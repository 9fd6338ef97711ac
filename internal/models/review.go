package models

import "time"

// Review is a user's free-text review for a restaurant. At most one exists
// per (UserID, RestaurantID), tracked independently of Rating.
type Review struct {
	ID           string
	UserID       string
	RestaurantID string

	// Username and RestaurantName are populated by listing queries only.
	Username       string
	RestaurantName string

	Text string

	// ReviewedAt is refreshed on every submission, even when Text is unchanged.
	ReviewedAt time.Time
}
