package apiv1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
)

const RatingServiceName = "dineout.v1.RatingService"

const (
	RatingServiceSubmitRatingProcedure  = "/dineout.v1.RatingService/SubmitRating"
	RatingServiceListMyRatingsProcedure = "/dineout.v1.RatingService/ListMyRatings"
	RatingServiceGetMyRatingProcedure   = "/dineout.v1.RatingService/GetMyRating"
)

type SubmitRatingRequest struct {
	RestaurantID string `json:"restaurant_id"`
	RatingValue  int    `json:"rating_value"`
}

// SubmitRatingResponse carries the aggregate committed with the rating.
// AvgRating is rounded to one decimal and absent when VoteCount is zero.
type SubmitRatingResponse struct {
	RestaurantID string    `json:"restaurant_id"`
	VoteCount    int       `json:"vote_count"`
	AvgRating    *float64  `json:"avg_rating"`
	RatingValue  int       `json:"rating_value"`
	RatingDate   time.Time `json:"rating_date"`
	Created      bool      `json:"created"`
}

type Rating struct {
	RestaurantID   string    `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name"`
	RatingValue    int       `json:"rating_value"`
	RatingDate     time.Time `json:"rating_date"`
}

type ListMyRatingsRequest struct{}

type ListMyRatingsResponse struct {
	Ratings []Rating `json:"ratings"`
}

type GetMyRatingRequest struct {
	RestaurantID string `json:"restaurant_id"`
}

// GetMyRatingResponse has a nil Rating when the caller has not rated.
type GetMyRatingResponse struct {
	Rating *Rating `json:"rating"`
}

// RatingServiceHandler is implemented by the server.
type RatingServiceHandler interface {
	SubmitRating(context.Context, *connect.Request[SubmitRatingRequest]) (*connect.Response[SubmitRatingResponse], error)
	ListMyRatings(context.Context, *connect.Request[ListMyRatingsRequest]) (*connect.Response[ListMyRatingsResponse], error)
	GetMyRating(context.Context, *connect.Request[GetMyRatingRequest]) (*connect.Response[GetMyRatingResponse], error)
}

// NewRatingServiceHandler returns the mount path and handler for svc.
func NewRatingServiceHandler(svc RatingServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return "/" + RatingServiceName + "/", serviceHandler(map[string]*connect.Handler{
		RatingServiceSubmitRatingProcedure:  unaryHandler(RatingServiceSubmitRatingProcedure, svc.SubmitRating, opts),
		RatingServiceListMyRatingsProcedure: unaryHandler(RatingServiceListMyRatingsProcedure, svc.ListMyRatings, opts),
		RatingServiceGetMyRatingProcedure:   unaryHandler(RatingServiceGetMyRatingProcedure, svc.GetMyRating, opts),
	})
}

// RatingServiceClient is a client for dineout.v1.RatingService.
type RatingServiceClient interface {
	SubmitRating(context.Context, *connect.Request[SubmitRatingRequest]) (*connect.Response[SubmitRatingResponse], error)
	ListMyRatings(context.Context, *connect.Request[ListMyRatingsRequest]) (*connect.Response[ListMyRatingsResponse], error)
	GetMyRating(context.Context, *connect.Request[GetMyRatingRequest]) (*connect.Response[GetMyRatingResponse], error)
}

type ratingServiceClient struct {
	submitRating  *connect.Client[SubmitRatingRequest, SubmitRatingResponse]
	listMyRatings *connect.Client[ListMyRatingsRequest, ListMyRatingsResponse]
	getMyRating   *connect.Client[GetMyRatingRequest, GetMyRatingResponse]
}

// NewRatingServiceClient constructs a client for the service at baseURL.
func NewRatingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) RatingServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &ratingServiceClient{
		submitRating:  unaryClient[SubmitRatingRequest, SubmitRatingResponse](httpClient, baseURL+RatingServiceSubmitRatingProcedure, opts),
		listMyRatings: unaryClient[ListMyRatingsRequest, ListMyRatingsResponse](httpClient, baseURL+RatingServiceListMyRatingsProcedure, opts),
		getMyRating:   unaryClient[GetMyRatingRequest, GetMyRatingResponse](httpClient, baseURL+RatingServiceGetMyRatingProcedure, opts),
	}
}

func (c *ratingServiceClient) SubmitRating(ctx context.Context, req *connect.Request[SubmitRatingRequest]) (*connect.Response[SubmitRatingResponse], error) {
	return c.submitRating.CallUnary(ctx, req)
}

func (c *ratingServiceClient) ListMyRatings(ctx context.Context, req *connect.Request[ListMyRatingsRequest]) (*connect.Response[ListMyRatingsResponse], error) {
	return c.listMyRatings.CallUnary(ctx, req)
}

func (c *ratingServiceClient) GetMyRating(ctx context.Context, req *connect.Request[GetMyRatingRequest]) (*connect.Response[GetMyRatingResponse], error) {
	return c.getMyRating.CallUnary(ctx, req)
}
