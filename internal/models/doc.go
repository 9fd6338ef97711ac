// Package models defines the core domain models for Dineout.
//
// # Models
//
//   - Restaurant: catalog entry plus its derived rating aggregate
//   - Rating: one user's 1-5 score for one restaurant
//   - Review: one user's free-text review for one restaurant
//   - User: registered account used as the rating/review author
//
// # Ownership rules
//
// 1. **Derived aggregate**: Restaurant.VoteCount and Restaurant.RatingSum are never
// written directly. The store recomputes them from the full set of ratings in the
// same transaction that writes a rating.
// 2. **Composite keys**: ratings and reviews are unique per (UserID, RestaurantID);
// a resubmission replaces the previous row.
// 3. **Independent reviews**: a review never changes the aggregate.
// 4. **IDs, not pointers**: relationships use ID strings.
package models
