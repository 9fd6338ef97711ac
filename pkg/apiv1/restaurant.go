package apiv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const RestaurantServiceName = "dineout.v1.RestaurantService"

const (
	RestaurantServiceGetRestaurantProcedure   = "/dineout.v1.RestaurantService/GetRestaurant"
	RestaurantServiceListRestaurantsProcedure = "/dineout.v1.RestaurantService/ListRestaurants"
	RestaurantServiceListCitiesProcedure      = "/dineout.v1.RestaurantService/ListCities"
	RestaurantServiceListCuisinesProcedure    = "/dineout.v1.RestaurantService/ListCuisines"
	RestaurantServiceTopRatedProcedure        = "/dineout.v1.RestaurantService/TopRated"
	RestaurantServiceCityStatsProcedure       = "/dineout.v1.RestaurantService/CityStats"
)

// Restaurant is the presentation form of a restaurant. AvgRating is rounded
// to one decimal and absent when VoteCount is zero.
type Restaurant struct {
	RestaurantID string   `json:"restaurant_id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Cuisines     []string `json:"cuisines"`
	PriceRange   int      `json:"price_range"`
	DiningType   string   `json:"dining_type"`
	VoteCount    int      `json:"vote_count"`
	AvgRating    *float64 `json:"avg_rating"`
	ReviewCount  int      `json:"review_count"`
	ImageURL     string   `json:"image_url"`
}

type GetRestaurantRequest struct {
	RestaurantID string `json:"restaurant_id"`
}

type GetRestaurantResponse struct {
	Restaurant Restaurant `json:"restaurant"`
}

type ListRestaurantsRequest struct {
	City      string  `json:"city,omitempty"`
	Cuisine   string  `json:"cuisine,omitempty"`
	Search    string  `json:"search,omitempty"`
	MinRating float64 `json:"min_rating,omitempty"`
	MaxPrice  int     `json:"max_price,omitempty"`
	Limit     int     `json:"limit,omitempty"`
	Offset    int     `json:"offset,omitempty"`
}

type ListRestaurantsResponse struct {
	Restaurants []Restaurant `json:"restaurants"`
}

type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

type ListCitiesRequest struct{}

type ListCitiesResponse struct {
	Cities []CityCount `json:"cities"`
}

type CuisineCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ListCuisinesRequest struct{}

type ListCuisinesResponse struct {
	Cuisines []CuisineCount `json:"cuisines"`
}

type TopRatedRequest struct{}

type TopRatedResponse struct {
	Restaurants []Restaurant `json:"restaurants"`
}

// CityStat summarizes one city. AvgRating is the mean of the rated
// restaurants' averages, rounded to two decimals, and absent when none are
// rated.
type CityStat struct {
	City             string   `json:"city"`
	TotalRestaurants int      `json:"total_restaurants"`
	AvgRating        *float64 `json:"avg_rating"`
	TotalVotes       int64    `json:"total_votes"`
}

type CityStatsRequest struct{}

type CityStatsResponse struct {
	Cities []CityStat `json:"cities"`
}

// RestaurantServiceHandler is implemented by the server.
type RestaurantServiceHandler interface {
	GetRestaurant(context.Context, *connect.Request[GetRestaurantRequest]) (*connect.Response[GetRestaurantResponse], error)
	ListRestaurants(context.Context, *connect.Request[ListRestaurantsRequest]) (*connect.Response[ListRestaurantsResponse], error)
	ListCities(context.Context, *connect.Request[ListCitiesRequest]) (*connect.Response[ListCitiesResponse], error)
	ListCuisines(context.Context, *connect.Request[ListCuisinesRequest]) (*connect.Response[ListCuisinesResponse], error)
	TopRated(context.Context, *connect.Request[TopRatedRequest]) (*connect.Response[TopRatedResponse], error)
	CityStats(context.Context, *connect.Request[CityStatsRequest]) (*connect.Response[CityStatsResponse], error)
}

// NewRestaurantServiceHandler returns the mount path and handler for svc.
func NewRestaurantServiceHandler(svc RestaurantServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return "/" + RestaurantServiceName + "/", serviceHandler(map[string]*connect.Handler{
		RestaurantServiceGetRestaurantProcedure:   unaryHandler(RestaurantServiceGetRestaurantProcedure, svc.GetRestaurant, opts),
		RestaurantServiceListRestaurantsProcedure: unaryHandler(RestaurantServiceListRestaurantsProcedure, svc.ListRestaurants, opts),
		RestaurantServiceListCitiesProcedure:      unaryHandler(RestaurantServiceListCitiesProcedure, svc.ListCities, opts),
		RestaurantServiceListCuisinesProcedure:    unaryHandler(RestaurantServiceListCuisinesProcedure, svc.ListCuisines, opts),
		RestaurantServiceTopRatedProcedure:        unaryHandler(RestaurantServiceTopRatedProcedure, svc.TopRated, opts),
		RestaurantServiceCityStatsProcedure:       unaryHandler(RestaurantServiceCityStatsProcedure, svc.CityStats, opts),
	})
}

// RestaurantServiceClient is a client for dineout.v1.RestaurantService.
type RestaurantServiceClient interface {
	GetRestaurant(context.Context, *connect.Request[GetRestaurantRequest]) (*connect.Response[GetRestaurantResponse], error)
	ListRestaurants(context.Context, *connect.Request[ListRestaurantsRequest]) (*connect.Response[ListRestaurantsResponse], error)
	ListCities(context.Context, *connect.Request[ListCitiesRequest]) (*connect.Response[ListCitiesResponse], error)
	ListCuisines(context.Context, *connect.Request[ListCuisinesRequest]) (*connect.Response[ListCuisinesResponse], error)
	TopRated(context.Context, *connect.Request[TopRatedRequest]) (*connect.Response[TopRatedResponse], error)
	CityStats(context.Context, *connect.Request[CityStatsRequest]) (*connect.Response[CityStatsResponse], error)
}

type restaurantServiceClient struct {
	getRestaurant   *connect.Client[GetRestaurantRequest, GetRestaurantResponse]
	listRestaurants *connect.Client[ListRestaurantsRequest, ListRestaurantsResponse]
	listCities      *connect.Client[ListCitiesRequest, ListCitiesResponse]
	listCuisines    *connect.Client[ListCuisinesRequest, ListCuisinesResponse]
	topRated        *connect.Client[TopRatedRequest, TopRatedResponse]
	cityStats       *connect.Client[CityStatsRequest, CityStatsResponse]
}

// NewRestaurantServiceClient constructs a client for the service at baseURL.
func NewRestaurantServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) RestaurantServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &restaurantServiceClient{
		getRestaurant:   unaryClient[GetRestaurantRequest, GetRestaurantResponse](httpClient, baseURL+RestaurantServiceGetRestaurantProcedure, opts),
		listRestaurants: unaryClient[ListRestaurantsRequest, ListRestaurantsResponse](httpClient, baseURL+RestaurantServiceListRestaurantsProcedure, opts),
		listCities:      unaryClient[ListCitiesRequest, ListCitiesResponse](httpClient, baseURL+RestaurantServiceListCitiesProcedure, opts),
		listCuisines:    unaryClient[ListCuisinesRequest, ListCuisinesResponse](httpClient, baseURL+RestaurantServiceListCuisinesProcedure, opts),
		topRated:        unaryClient[TopRatedRequest, TopRatedResponse](httpClient, baseURL+RestaurantServiceTopRatedProcedure, opts),
		cityStats:       unaryClient[CityStatsRequest, CityStatsResponse](httpClient, baseURL+RestaurantServiceCityStatsProcedure, opts),
	}
}

func (c *restaurantServiceClient) GetRestaurant(ctx context.Context, req *connect.Request[GetRestaurantRequest]) (*connect.Response[GetRestaurantResponse], error) {
	return c.getRestaurant.CallUnary(ctx, req)
}

func (c *restaurantServiceClient) ListRestaurants(ctx context.Context, req *connect.Request[ListRestaurantsRequest]) (*connect.Response[ListRestaurantsResponse], error) {
	return c.listRestaurants.CallUnary(ctx, req)
}

func (c *restaurantServiceClient) ListCities(ctx context.Context, req *connect.Request[ListCitiesRequest]) (*connect.Response[ListCitiesResponse], error) {
	return c.listCities.CallUnary(ctx, req)
}

func (c *restaurantServiceClient) ListCuisines(ctx context.Context, req *connect.Request[ListCuisinesRequest]) (*connect.Response[ListCuisinesResponse], error) {
	return c.listCuisines.CallUnary(ctx, req)
}

func (c *restaurantServiceClient) TopRated(ctx context.Context, req *connect.Request[TopRatedRequest]) (*connect.Response[TopRatedResponse], error) {
	return c.topRated.CallUnary(ctx, req)
}

func (c *restaurantServiceClient) CityStats(ctx context.Context, req *connect.Request[CityStatsRequest]) (*connect.Response[CityStatsResponse], error) {
	return c.cityStats.CallUnary(ctx, req)
}
