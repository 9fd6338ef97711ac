package registry

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/dineout/internal/events"
	"github.com/mmynk/dineout/internal/models"
)

// MaxReviewLength is the review limit in characters (Unicode code points).
const MaxReviewLength = 500

// ReviewRegistry owns review submissions. Reviews never affect the
// aggregate and never take the restaurant lock.
type ReviewRegistry struct {
	deps Dependencies
}

func NewReviewRegistry(deps Dependencies) *ReviewRegistry {
	deps.defaults()
	return &ReviewRegistry{deps: deps}
}

// SubmitReview creates or replaces the caller's review. The stored text is
// trimmed; the length limit applies to the text as submitted.
func (r *ReviewRegistry) SubmitReview(ctx context.Context, userID, restaurantID, text string) (*models.Review, bool, error) {
	review, created, err := r.submit(ctx, userID, strings.TrimSpace(restaurantID), text)
	r.deps.Metrics.ObserveReview(outcome(created, err))
	if err != nil {
		r.deps.Logger.WarnContext(ctx, "Review rejected",
			"user_id", userID,
			"restaurant_id", restaurantID,
			"error", err,
		)
		return nil, false, err
	}
	return review, created, nil
}

func (r *ReviewRegistry) submit(ctx context.Context, userID, restaurantID, text string) (*models.Review, bool, error) {
	if userID == "" {
		return nil, false, ErrAuth
	}
	if restaurantID == "" {
		return nil, false, invalid("restaurant_id", "is required")
	}
	if err := ValidateReviewText(text); err != nil {
		return nil, false, err
	}

	release, err := r.deps.admit(ctx, "review", userID, restaurantID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	review := &models.Review{
		UserID:       userID,
		RestaurantID: restaurantID,
		Text:         strings.TrimSpace(text),
		ReviewedAt:   r.deps.Now(),
	}
	created, err := r.deps.Reviews.UpsertReview(ctx, review)
	if err != nil {
		return nil, false, translate(err)
	}

	r.deps.Logger.InfoContext(ctx, "Review stored",
		"user_id", userID,
		"restaurant_id", restaurantID,
		"review_id", review.ID,
		"created", created,
	)

	err = events.PublishReview(ctx, r.deps.Publisher, events.ReviewSubmitted{
		ReviewID:     review.ID,
		RestaurantID: restaurantID,
		UserID:       userID,
		Created:      created,
		OccurredAt:   review.ReviewedAt,
	})
	if err != nil {
		r.deps.Logger.ErrorContext(ctx, "Review event not published", "restaurant_id", restaurantID, "error", err)
	}

	return review, created, nil
}

// ValidateReviewText checks emptiness after trimming and the character limit.
func ValidateReviewText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("review_text", "must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxReviewLength {
		return invalid("review_text", "must be at most 500 characters")
	}
	return nil
}
