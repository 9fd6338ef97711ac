// Package events publishes rating and review submissions for downstream
// consumers such as search indexing and recommendation jobs.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeRatingSubmitted = "dineout.rating.submitted"
	TypeReviewSubmitted = "dineout.review.submitted"
)

// Publisher delivers an encoded event. partitionKey keeps events for the same
// restaurant ordered.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}

// RatingSubmitted is emitted after a rating write commits.
type RatingSubmitted struct {
	RestaurantID string    `json:"restaurant_id"`
	UserID       string    `json:"user_id"`
	Value        int       `json:"rating_value"`
	Created      bool      `json:"created"`
	VoteCount    int       `json:"vote_count"`
	RatingSum    int64     `json:"rating_sum"`
	Version      int64     `json:"version"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ReviewSubmitted is emitted after a review write commits.
type ReviewSubmitted struct {
	ReviewID     string    `json:"review_id"`
	RestaurantID string    `json:"restaurant_id"`
	UserID       string    `json:"user_id"`
	Created      bool      `json:"created"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PublishRating encodes and publishes e keyed by restaurant.
func PublishRating(ctx context.Context, p Publisher, e RatingSubmitted) error {
	return publishJSON(ctx, p, TypeRatingSubmitted, e.RestaurantID, e)
}

// PublishReview encodes and publishes e keyed by restaurant.
func PublishReview(ctx context.Context, p Publisher, e ReviewSubmitted) error {
	return publishJSON(ctx, p, TypeReviewSubmitted, e.RestaurantID, e)
}

func publishJSON(ctx context.Context, p Publisher, eventType, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}
	if err := p.Publish(ctx, eventType, payload, key); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
