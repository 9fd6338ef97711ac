package apiv1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
)

const ReviewServiceName = "dineout.v1.ReviewService"

const (
	ReviewServiceSubmitReviewProcedure          = "/dineout.v1.ReviewService/SubmitReview"
	ReviewServiceListRestaurantReviewsProcedure = "/dineout.v1.ReviewService/ListRestaurantReviews"
	ReviewServiceGetMyReviewProcedure           = "/dineout.v1.ReviewService/GetMyReview"
)

type SubmitReviewRequest struct {
	RestaurantID string `json:"restaurant_id"`
	ReviewText   string `json:"review_text"`
}

type SubmitReviewResponse struct {
	ReviewID   string    `json:"review_id"`
	ReviewText string    `json:"review_text"`
	ReviewDate time.Time `json:"review_date"`
	Created    bool      `json:"created"`
}

type Review struct {
	ReviewID       string    `json:"review_id"`
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name,omitempty"`
	ReviewText     string    `json:"review_text"`
	ReviewDate     time.Time `json:"review_date"`
}

type ListRestaurantReviewsRequest struct {
	RestaurantID string `json:"restaurant_id"`
}

type ListRestaurantReviewsResponse struct {
	Reviews []Review `json:"reviews"`
}

type GetMyReviewRequest struct {
	RestaurantID string `json:"restaurant_id"`
}

// GetMyReviewResponse has a nil Review when the caller has not reviewed.
type GetMyReviewResponse struct {
	Review *Review `json:"review"`
}

// ReviewServiceHandler is implemented by the server.
type ReviewServiceHandler interface {
	SubmitReview(context.Context, *connect.Request[SubmitReviewRequest]) (*connect.Response[SubmitReviewResponse], error)
	ListRestaurantReviews(context.Context, *connect.Request[ListRestaurantReviewsRequest]) (*connect.Response[ListRestaurantReviewsResponse], error)
	GetMyReview(context.Context, *connect.Request[GetMyReviewRequest]) (*connect.Response[GetMyReviewResponse], error)
}

// NewReviewServiceHandler returns the mount path and handler for svc.
func NewReviewServiceHandler(svc ReviewServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return "/" + ReviewServiceName + "/", serviceHandler(map[string]*connect.Handler{
		ReviewServiceSubmitReviewProcedure:          unaryHandler(ReviewServiceSubmitReviewProcedure, svc.SubmitReview, opts),
		ReviewServiceListRestaurantReviewsProcedure: unaryHandler(ReviewServiceListRestaurantReviewsProcedure, svc.ListRestaurantReviews, opts),
		ReviewServiceGetMyReviewProcedure:           unaryHandler(ReviewServiceGetMyReviewProcedure, svc.GetMyReview, opts),
	})
}

// ReviewServiceClient is a client for dineout.v1.ReviewService.
type ReviewServiceClient interface {
	SubmitReview(context.Context, *connect.Request[SubmitReviewRequest]) (*connect.Response[SubmitReviewResponse], error)
	ListRestaurantReviews(context.Context, *connect.Request[ListRestaurantReviewsRequest]) (*connect.Response[ListRestaurantReviewsResponse], error)
	GetMyReview(context.Context, *connect.Request[GetMyReviewRequest]) (*connect.Response[GetMyReviewResponse], error)
}

type reviewServiceClient struct {
	submitReview          *connect.Client[SubmitReviewRequest, SubmitReviewResponse]
	listRestaurantReviews *connect.Client[ListRestaurantReviewsRequest, ListRestaurantReviewsResponse]
	getMyReview           *connect.Client[GetMyReviewRequest, GetMyReviewResponse]
}

// NewReviewServiceClient constructs a client for the service at baseURL.
func NewReviewServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ReviewServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &reviewServiceClient{
		submitReview:          unaryClient[SubmitReviewRequest, SubmitReviewResponse](httpClient, baseURL+ReviewServiceSubmitReviewProcedure, opts),
		listRestaurantReviews: unaryClient[ListRestaurantReviewsRequest, ListRestaurantReviewsResponse](httpClient, baseURL+ReviewServiceListRestaurantReviewsProcedure, opts),
		getMyReview:           unaryClient[GetMyReviewRequest, GetMyReviewResponse](httpClient, baseURL+ReviewServiceGetMyReviewProcedure, opts),
	}
}

func (c *reviewServiceClient) SubmitReview(ctx context.Context, req *connect.Request[SubmitReviewRequest]) (*connect.Response[SubmitReviewResponse], error) {
	return c.submitReview.CallUnary(ctx, req)
}

func (c *reviewServiceClient) ListRestaurantReviews(ctx context.Context, req *connect.Request[ListRestaurantReviewsRequest]) (*connect.Response[ListRestaurantReviewsResponse], error) {
	return c.listRestaurantReviews.CallUnary(ctx, req)
}

func (c *reviewServiceClient) GetMyReview(ctx context.Context, req *connect.Request[GetMyReviewRequest]) (*connect.Response[GetMyReviewResponse], error) {
	return c.getMyReview.CallUnary(ctx, req)
}
