package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/dineout/internal/aggregate"
	"github.com/mmynk/dineout/internal/catalog"
	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/registry"
	"github.com/mmynk/dineout/pkg/apiv1"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var _ apiv1.RestaurantServiceHandler = (*RestaurantService)(nil)

// RestaurantService implements the RestaurantService RPC interface.
type RestaurantService struct {
	catalog *catalog.Reader
	logger  *slog.Logger
}

// NewRestaurantService creates a new restaurant service.
func NewRestaurantService(reader *catalog.Reader, logger *slog.Logger) *RestaurantService {
	return &RestaurantService{catalog: reader, logger: logger}
}

// GetRestaurant returns a restaurant with its current aggregate. A read
// after an acknowledged rating write observes that write.
func (s *RestaurantService) GetRestaurant(ctx context.Context, req *connect.Request[apiv1.GetRestaurantRequest]) (*connect.Response[apiv1.GetRestaurantResponse], error) {
	id := strings.TrimSpace(req.Msg.RestaurantID)
	if err := requireRestaurantID(id); err != nil {
		return nil, err
	}

	r, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.GetRestaurantResponse{Restaurant: restaurantToAPI(r)}), nil
}

func (s *RestaurantService) ListRestaurants(ctx context.Context, req *connect.Request[apiv1.ListRestaurantsRequest]) (*connect.Response[apiv1.ListRestaurantsResponse], error) {
	msg := req.Msg
	if msg.MinRating < 0 || msg.MinRating > aggregate.MaxRating {
		return nil, apiv1.NewValidationError("min_rating", "must be between 0 and 5", registry.ErrValidation)
	}

	limit := msg.Limit
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	list, err := s.catalog.List(ctx, models.RestaurantFilter{
		City:      strings.TrimSpace(msg.City),
		Cuisine:   strings.TrimSpace(msg.Cuisine),
		Search:    strings.TrimSpace(msg.Search),
		MinRating: msg.MinRating,
		MaxPrice:  msg.MaxPrice,
		Limit:     limit,
		Offset:    max(msg.Offset, 0),
	})
	if err != nil {
		s.logger.Error("Failed to list restaurants", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]apiv1.Restaurant, 0, len(list))
	for _, r := range list {
		out = append(out, restaurantToAPI(r))
	}
	return connect.NewResponse(&apiv1.ListRestaurantsResponse{Restaurants: out}), nil
}

func (s *RestaurantService) ListCities(ctx context.Context, req *connect.Request[apiv1.ListCitiesRequest]) (*connect.Response[apiv1.ListCitiesResponse], error) {
	cities, err := s.catalog.Cities(ctx)
	if err != nil {
		s.logger.Error("Failed to list cities", "error", err)
		return nil, toConnectError(err)
	}
	out := make([]apiv1.CityCount, 0, len(cities))
	for _, c := range cities {
		out = append(out, apiv1.CityCount{City: c.City, Count: c.Count})
	}
	return connect.NewResponse(&apiv1.ListCitiesResponse{Cities: out}), nil
}

func (s *RestaurantService) ListCuisines(ctx context.Context, req *connect.Request[apiv1.ListCuisinesRequest]) (*connect.Response[apiv1.ListCuisinesResponse], error) {
	cuisines, err := s.catalog.Cuisines(ctx)
	if err != nil {
		s.logger.Error("Failed to list cuisines", "error", err)
		return nil, toConnectError(err)
	}
	out := make([]apiv1.CuisineCount, 0, len(cuisines))
	for _, c := range cuisines {
		out = append(out, apiv1.CuisineCount{Name: c.Name, Count: c.Count})
	}
	return connect.NewResponse(&apiv1.ListCuisinesResponse{Cuisines: out}), nil
}

// TopRated returns the best rated restaurants that have enough votes to rank.
func (s *RestaurantService) TopRated(ctx context.Context, req *connect.Request[apiv1.TopRatedRequest]) (*connect.Response[apiv1.TopRatedResponse], error) {
	list, err := s.catalog.TopRated(ctx)
	if err != nil {
		s.logger.Error("Failed to load top rated", "error", err)
		return nil, toConnectError(err)
	}
	out := make([]apiv1.Restaurant, 0, len(list))
	for _, r := range list {
		out = append(out, restaurantToAPI(r))
	}
	return connect.NewResponse(&apiv1.TopRatedResponse{Restaurants: out}), nil
}

func (s *RestaurantService) CityStats(ctx context.Context, req *connect.Request[apiv1.CityStatsRequest]) (*connect.Response[apiv1.CityStatsResponse], error) {
	stats, err := s.catalog.CityStats(ctx)
	if err != nil {
		s.logger.Error("Failed to load city stats", "error", err)
		return nil, toConnectError(err)
	}
	out := make([]apiv1.CityStat, 0, len(stats))
	for _, c := range stats {
		out = append(out, cityStatToAPI(c))
	}
	return connect.NewResponse(&apiv1.CityStatsResponse{Cities: out}), nil
}
