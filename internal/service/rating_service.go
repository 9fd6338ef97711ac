package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/dineout/internal/aggregate"
	"github.com/mmynk/dineout/internal/middleware"
	"github.com/mmynk/dineout/internal/registry"
	"github.com/mmynk/dineout/internal/storage"
	"github.com/mmynk/dineout/pkg/apiv1"
)

var _ apiv1.RatingServiceHandler = (*RatingService)(nil)

// RatingService implements the RatingService RPC interface.
type RatingService struct {
	registry *registry.RatingRegistry
	store    storage.RatingStore
	logger   *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(reg *registry.RatingRegistry, store storage.RatingStore, logger *slog.Logger) *RatingService {
	return &RatingService{registry: reg, store: store, logger: logger}
}

// SubmitRating creates or replaces the caller's rating and returns the
// aggregate committed with it.
func (s *RatingService) SubmitRating(ctx context.Context, req *connect.Request[apiv1.SubmitRatingRequest]) (*connect.Response[apiv1.SubmitRatingResponse], error) {
	res, err := s.registry.SubmitRating(ctx, middleware.GetUserID(ctx), req.Msg.RestaurantID, req.Msg.RatingValue)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&apiv1.SubmitRatingResponse{
		RestaurantID: res.Restaurant.ID,
		VoteCount:    res.VoteCount(),
		AvgRating:    aggregate.Summary{Count: res.Restaurant.VoteCount, Sum: res.Restaurant.RatingSum}.Display(),
		RatingValue:  res.Rating.Value,
		RatingDate:   res.Rating.RatedAt,
		Created:      res.Created,
	}), nil
}

// ListMyRatings returns the caller's ratings, newest first.
func (s *RatingService) ListMyRatings(ctx context.Context, req *connect.Request[apiv1.ListMyRatingsRequest]) (*connect.Response[apiv1.ListMyRatingsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ratings, err := s.store.ListRatingsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list ratings", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]apiv1.Rating, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, ratingToAPI(r))
	}
	return connect.NewResponse(&apiv1.ListMyRatingsResponse{Ratings: out}), nil
}

// GetMyRating returns the caller's rating for one restaurant, if any.
func (s *RatingService) GetMyRating(ctx context.Context, req *connect.Request[apiv1.GetMyRatingRequest]) (*connect.Response[apiv1.GetMyRatingResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	restaurantID := strings.TrimSpace(req.Msg.RestaurantID)
	if err := requireRestaurantID(restaurantID); err != nil {
		return nil, err
	}

	rating, err := s.store.GetRating(ctx, userID, restaurantID)
	if err != nil {
		s.logger.Error("Failed to get rating", "user_id", userID, "restaurant_id", restaurantID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &apiv1.GetMyRatingResponse{}
	if rating != nil {
		r := ratingToAPI(rating)
		resp.Rating = &r
	}
	return connect.NewResponse(resp), nil
}
