package models

import "time"

// Rating is a user's score for a restaurant. At most one exists per
// (UserID, RestaurantID); resubmitting replaces Value and RatedAt.
type Rating struct {
	ID           string
	UserID       string
	RestaurantID string

	// RestaurantName is populated by listing queries only.
	RestaurantName string

	// Value is an integer in [1, 5].
	Value int

	// RatedAt is the time of the last write.
	RatedAt time.Time
}

// RatingWrite is the outcome of a rating upsert: the stored rating, whether
// it was newly created, and the restaurant aggregate recomputed in the same
// transaction.
type RatingWrite struct {
	Rating     Rating
	Created    bool
	Restaurant Restaurant

	// Drift reports that the stored aggregate did not match the recount
	// before this write and was corrected by it.
	Drift bool
}
