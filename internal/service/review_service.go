package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/dineout/internal/middleware"
	"github.com/mmynk/dineout/internal/registry"
	"github.com/mmynk/dineout/internal/storage"
	"github.com/mmynk/dineout/pkg/apiv1"
)

var _ apiv1.ReviewServiceHandler = (*ReviewService)(nil)

// ReviewService implements the ReviewService RPC interface.
type ReviewService struct {
	registry *registry.ReviewRegistry
	store    storage.ReviewStore
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reg *registry.ReviewRegistry, store storage.ReviewStore, logger *slog.Logger) *ReviewService {
	return &ReviewService{registry: reg, store: store, logger: logger}
}

func (s *ReviewService) SubmitReview(ctx context.Context, req *connect.Request[apiv1.SubmitReviewRequest]) (*connect.Response[apiv1.SubmitReviewResponse], error) {
	review, created, err := s.registry.SubmitReview(ctx, middleware.GetUserID(ctx), req.Msg.RestaurantID, req.Msg.ReviewText)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&apiv1.SubmitReviewResponse{
		ReviewID:   review.ID,
		ReviewText: review.Text,
		ReviewDate: review.ReviewedAt,
		Created:    created,
	}), nil
}

// ListRestaurantReviews is public; an unknown restaurant has no reviews.
func (s *ReviewService) ListRestaurantReviews(ctx context.Context, req *connect.Request[apiv1.ListRestaurantReviewsRequest]) (*connect.Response[apiv1.ListRestaurantReviewsResponse], error) {
	restaurantID := strings.TrimSpace(req.Msg.RestaurantID)
	if err := requireRestaurantID(restaurantID); err != nil {
		return nil, err
	}

	reviews, err := s.store.ListReviewsByRestaurant(ctx, restaurantID)
	if err != nil {
		s.logger.Error("Failed to list reviews", "restaurant_id", restaurantID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]apiv1.Review, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewToAPI(r))
	}
	return connect.NewResponse(&apiv1.ListRestaurantReviewsResponse{Reviews: out}), nil
}

func (s *ReviewService) GetMyReview(ctx context.Context, req *connect.Request[apiv1.GetMyReviewRequest]) (*connect.Response[apiv1.GetMyReviewResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	restaurantID := strings.TrimSpace(req.Msg.RestaurantID)
	if err := requireRestaurantID(restaurantID); err != nil {
		return nil, err
	}

	review, err := s.store.GetReview(ctx, userID, restaurantID)
	if err != nil {
		s.logger.Error("Failed to get review", "user_id", userID, "restaurant_id", restaurantID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &apiv1.GetMyReviewResponse{}
	if review != nil {
		r := reviewToAPI(review)
		resp.Review = &r
	}
	return connect.NewResponse(resp), nil
}
