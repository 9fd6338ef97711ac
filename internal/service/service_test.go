package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/dineout/internal/auth"
	"github.com/mmynk/dineout/internal/cache"
	"github.com/mmynk/dineout/internal/catalog"
	"github.com/mmynk/dineout/internal/gallery"
	"github.com/mmynk/dineout/internal/middleware"
	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/registry"
	"github.com/mmynk/dineout/internal/storage/sqlite"
	"github.com/mmynk/dineout/pkg/apiv1"
)

type testClients struct {
	ratings     apiv1.RatingServiceClient
	reviews     apiv1.ReviewServiceClient
	restaurants apiv1.RestaurantServiceClient
	auth        apiv1.AuthServiceClient
	jwt         *auth.JWTManager
}

// setupTestServer serves every service over httptest against a temp database
// seeded with two restaurants.
func setupTestServer(t *testing.T) *testClients {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reader := catalog.NewReader(store, cache.NewMemory(), logger)
	if _, err := reader.Seed(context.Background(), []models.Restaurant{
		{ID: "RES001", Name: "Spice Route", City: "Delhi", Cuisines: []string{"North Indian"}, PriceRange: 3},
		{ID: "RES002", Name: "Dosa Corner", City: "Bengaluru", Cuisines: []string{"South Indian"}, PriceRange: 1},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	deps := registry.Dependencies{Ratings: store, Reviews: store, Sink: reader, Logger: logger}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	interceptors := connect.WithInterceptors(middleware.OptionalAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(apiv1.NewRatingServiceHandler(NewRatingService(registry.NewRatingRegistry(deps), store, logger), interceptors))
	mux.Handle(apiv1.NewReviewServiceHandler(NewReviewService(registry.NewReviewRegistry(deps), store, logger), interceptors))
	mux.Handle(apiv1.NewRestaurantServiceHandler(NewRestaurantService(reader, logger), interceptors))
	mux.Handle(apiv1.NewAuthServiceHandler(NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testClients{
		ratings:     apiv1.NewRatingServiceClient(http.DefaultClient, server.URL),
		reviews:     apiv1.NewReviewServiceClient(http.DefaultClient, server.URL),
		restaurants: apiv1.NewRestaurantServiceClient(http.DefaultClient, server.URL),
		auth:        apiv1.NewAuthServiceClient(http.DefaultClient, server.URL),
		jwt:         jwtManager,
	}
}

// register creates an account and returns its bearer token.
func (c *testClients) register(t *testing.T, username string) string {
	t.Helper()
	resp, err := c.auth.Register(context.Background(), connect.NewRequest(&apiv1.RegisterRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
	return resp.Msg.Token
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestSubmitRatingScenario(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice")
	bob := c.register(t, "bob")

	steps := []struct {
		token     string
		value     int
		wantCount int
		wantAvg   float64
		created   bool
	}{
		{alice, 5, 1, 5.0, true},
		{bob, 3, 2, 4.0, true},
		{alice, 1, 2, 2.0, false},
	}
	for i, s := range steps {
		resp, err := c.ratings.SubmitRating(ctx, withToken(&apiv1.SubmitRatingRequest{RestaurantID: "RES001", RatingValue: s.value}, s.token))
		if err != nil {
			t.Fatalf("step %d: SubmitRating failed: %v", i, err)
		}
		if resp.Msg.VoteCount != s.wantCount || resp.Msg.AvgRating == nil || *resp.Msg.AvgRating != s.wantAvg || resp.Msg.Created != s.created {
			t.Errorf("step %d: got count=%d avg=%v created=%v", i, resp.Msg.VoteCount, resp.Msg.AvgRating, resp.Msg.Created)
		}

		get, err := c.restaurants.GetRestaurant(ctx, connect.NewRequest(&apiv1.GetRestaurantRequest{RestaurantID: "RES001"}))
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		if get.Msg.Restaurant.VoteCount != s.wantCount || *get.Msg.Restaurant.AvgRating != s.wantAvg {
			t.Errorf("step %d: read after write count=%d avg=%v", i, get.Msg.Restaurant.VoteCount, *get.Msg.Restaurant.AvgRating)
		}
	}

	mine, err := c.ratings.GetMyRating(ctx, withToken(&apiv1.GetMyRatingRequest{RestaurantID: "RES001"}, alice))
	if err != nil {
		t.Fatalf("GetMyRating failed: %v", err)
	}
	if mine.Msg.Rating == nil || mine.Msg.Rating.RatingValue != 1 {
		t.Errorf("GetMyRating = %+v, want value 1", mine.Msg.Rating)
	}
}

func TestSubmitRatingErrors(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	token := c.register(t, "carol")

	tests := []struct {
		name      string
		token     string
		req       *apiv1.SubmitRatingRequest
		wantCode  connect.Code
		wantField string
	}{
		{"no token", "", &apiv1.SubmitRatingRequest{RestaurantID: "RES001", RatingValue: 4}, connect.CodeUnauthenticated, ""},
		{"bad token", "garbage", &apiv1.SubmitRatingRequest{RestaurantID: "RES001", RatingValue: 4}, connect.CodeUnauthenticated, ""},
		{"value too high", token, &apiv1.SubmitRatingRequest{RestaurantID: "RES001", RatingValue: 6}, connect.CodeInvalidArgument, "rating_value"},
		{"missing restaurant", token, &apiv1.SubmitRatingRequest{RatingValue: 3}, connect.CodeInvalidArgument, "restaurant_id"},
		{"unknown restaurant", token, &apiv1.SubmitRatingRequest{RestaurantID: "RES999", RatingValue: 3}, connect.CodeNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ratings.SubmitRating(ctx, withToken(tt.req, tt.token))
			if connect.CodeOf(err) != tt.wantCode {
				t.Fatalf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.wantCode, err)
			}
			if tt.wantField != "" {
				field, _, ok := apiv1.ValidationField(err)
				if !ok || field != tt.wantField {
					t.Errorf("field = %q, want %q", field, tt.wantField)
				}
			}
		})
	}
}

func TestReviews(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	dave := c.register(t, "dave")

	t.Run("unauthenticated rejected without record", func(t *testing.T) {
		_, err := c.reviews.SubmitReview(ctx, withToken(&apiv1.SubmitReviewRequest{RestaurantID: "RES002", ReviewText: "tasty"}, ""))
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Fatalf("code = %v, want Unauthenticated", connect.CodeOf(err))
		}
		list, err := c.reviews.ListRestaurantReviews(ctx, connect.NewRequest(&apiv1.ListRestaurantReviewsRequest{RestaurantID: "RES002"}))
		if err != nil {
			t.Fatalf("ListRestaurantReviews failed: %v", err)
		}
		if len(list.Msg.Reviews) != 0 {
			t.Errorf("reviews = %d, want 0", len(list.Msg.Reviews))
		}
	})

	t.Run("length boundary", func(t *testing.T) {
		resp, err := c.reviews.SubmitReview(ctx, withToken(&apiv1.SubmitReviewRequest{RestaurantID: "RES002", ReviewText: strings.Repeat("a", 500)}, dave))
		if err != nil {
			t.Fatalf("500 chars rejected: %v", err)
		}
		if !resp.Msg.Created || resp.Msg.ReviewID == "" {
			t.Errorf("resp = %+v", resp.Msg)
		}

		_, err = c.reviews.SubmitReview(ctx, withToken(&apiv1.SubmitReviewRequest{RestaurantID: "RES002", ReviewText: strings.Repeat("a", 501)}, dave))
		if field, _, ok := apiv1.ValidationField(err); !ok || field != "review_text" {
			t.Errorf("501 chars err = %v", err)
		}
	})

	t.Run("replace and list", func(t *testing.T) {
		resp, err := c.reviews.SubmitReview(ctx, withToken(&apiv1.SubmitReviewRequest{RestaurantID: "RES002", ReviewText: "Crispy dosa"}, dave))
		if err != nil {
			t.Fatalf("SubmitReview failed: %v", err)
		}
		if resp.Msg.Created {
			t.Error("expected replace, got create")
		}

		list, err := c.reviews.ListRestaurantReviews(ctx, connect.NewRequest(&apiv1.ListRestaurantReviewsRequest{RestaurantID: "RES002"}))
		if err != nil {
			t.Fatalf("ListRestaurantReviews failed: %v", err)
		}
		if len(list.Msg.Reviews) != 1 || list.Msg.Reviews[0].Username != "dave" || list.Msg.Reviews[0].ReviewText != "Crispy dosa" {
			t.Errorf("reviews = %+v", list.Msg.Reviews)
		}

		mine, err := c.reviews.GetMyReview(ctx, withToken(&apiv1.GetMyReviewRequest{RestaurantID: "RES002"}, dave))
		if err != nil || mine.Msg.Review == nil || mine.Msg.Review.ReviewID != resp.Msg.ReviewID {
			t.Errorf("GetMyReview = %+v, %v", mine, err)
		}

		get, err := c.restaurants.GetRestaurant(ctx, connect.NewRequest(&apiv1.GetRestaurantRequest{RestaurantID: "RES002"}))
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		if get.Msg.Restaurant.ReviewCount != 1 || get.Msg.Restaurant.VoteCount != 0 || get.Msg.Restaurant.AvgRating != nil {
			t.Errorf("restaurant = %+v", get.Msg.Restaurant)
		}
	})
}

func TestRestaurantCatalog(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	t.Run("image is deterministic", func(t *testing.T) {
		get, err := c.restaurants.GetRestaurant(ctx, connect.NewRequest(&apiv1.GetRestaurantRequest{RestaurantID: "RES001"}))
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		want, _ := gallery.SelectImage("RES001", "")
		if get.Msg.Restaurant.ImageURL != want {
			t.Errorf("ImageURL = %q, want %q", get.Msg.Restaurant.ImageURL, want)
		}
	})

	t.Run("list with filter", func(t *testing.T) {
		resp, err := c.restaurants.ListRestaurants(ctx, connect.NewRequest(&apiv1.ListRestaurantsRequest{City: "Delhi"}))
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if len(resp.Msg.Restaurants) != 1 || resp.Msg.Restaurants[0].RestaurantID != "RES001" {
			t.Errorf("restaurants = %+v", resp.Msg.Restaurants)
		}
	})

	t.Run("min rating out of range", func(t *testing.T) {
		_, err := c.restaurants.ListRestaurants(ctx, connect.NewRequest(&apiv1.ListRestaurantsRequest{MinRating: 7}))
		if connect.CodeOf(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v", connect.CodeOf(err))
		}
	})

	t.Run("cities and cuisines", func(t *testing.T) {
		cities, err := c.restaurants.ListCities(ctx, connect.NewRequest(&apiv1.ListCitiesRequest{}))
		if err != nil || len(cities.Msg.Cities) != 2 {
			t.Errorf("cities = %+v, %v", cities, err)
		}
		cuisines, err := c.restaurants.ListCuisines(ctx, connect.NewRequest(&apiv1.ListCuisinesRequest{}))
		if err != nil || len(cuisines.Msg.Cuisines) != 2 {
			t.Errorf("cuisines = %+v, %v", cuisines, err)
		}
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		_, err := c.restaurants.GetRestaurant(ctx, connect.NewRequest(&apiv1.GetRestaurantRequest{RestaurantID: "nope"}))
		if connect.CodeOf(err) != connect.CodeNotFound {
			t.Errorf("code = %v, want NotFound", connect.CodeOf(err))
		}
	})
}

func TestAuthFlow(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	token := c.register(t, "erin")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := c.auth.Register(ctx, connect.NewRequest(&apiv1.RegisterRequest{Email: "erin@example.com", Username: "erin2", Password: "password123"}))
		if connect.CodeOf(err) != connect.CodeAlreadyExists {
			t.Errorf("code = %v, want AlreadyExists", connect.CodeOf(err))
		}
	})

	t.Run("login", func(t *testing.T) {
		resp, err := c.auth.Login(ctx, connect.NewRequest(&apiv1.LoginRequest{Email: "erin@example.com", Password: "password123"}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if _, err := c.jwt.Validate(resp.Msg.Token); err != nil {
			t.Errorf("issued token invalid: %v", err)
		}

		_, err = c.auth.Login(ctx, connect.NewRequest(&apiv1.LoginRequest{Email: "erin@example.com", Password: "nope-nope"}))
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("bad password code = %v", connect.CodeOf(err))
		}
	})

	t.Run("profile", func(t *testing.T) {
		if _, err := c.ratings.SubmitRating(ctx, withToken(&apiv1.SubmitRatingRequest{RestaurantID: "RES001", RatingValue: 4}, token)); err != nil {
			t.Fatalf("SubmitRating failed: %v", err)
		}
		resp, err := c.auth.GetProfile(ctx, withToken(&apiv1.GetProfileRequest{}, token))
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if resp.Msg.User.Username != "erin" || resp.Msg.Stats.RatingsCount != 1 || resp.Msg.Stats.FavoriteCity != "Delhi" {
			t.Errorf("profile = %+v", resp.Msg)
		}

		list, err := c.ratings.ListMyRatings(ctx, withToken(&apiv1.ListMyRatingsRequest{}, token))
		if err != nil || len(list.Msg.Ratings) != 1 || list.Msg.Ratings[0].RestaurantName != "Spice Route" {
			t.Errorf("ListMyRatings = %+v, %v", list, err)
		}
	})

	t.Run("profile requires auth", func(t *testing.T) {
		_, err := c.auth.GetProfile(ctx, connect.NewRequest(&apiv1.GetProfileRequest{}))
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("code = %v", connect.CodeOf(err))
		}
	})
}

func TestAnalytics(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	for i, v := range []int{5, 4, 4, 5, 3} {
		token := c.register(t, fmt.Sprintf("rater%d", i))
		if _, err := c.ratings.SubmitRating(ctx, withToken(&apiv1.SubmitRatingRequest{RestaurantID: "RES001", RatingValue: v}, token)); err != nil {
			t.Fatalf("SubmitRating failed: %v", err)
		}
		if i == 0 {
			if _, err := c.ratings.SubmitRating(ctx, withToken(&apiv1.SubmitRatingRequest{RestaurantID: "RES002", RatingValue: 5}, token)); err != nil {
				t.Fatalf("SubmitRating failed: %v", err)
			}
		}
	}

	t.Run("top rated needs five votes", func(t *testing.T) {
		resp, err := c.restaurants.TopRated(ctx, connect.NewRequest(&apiv1.TopRatedRequest{}))
		if err != nil {
			t.Fatalf("TopRated failed: %v", err)
		}
		got := resp.Msg.Restaurants
		if len(got) != 1 || got[0].RestaurantID != "RES001" {
			t.Fatalf("restaurants = %+v, want only RES001", got)
		}
		if got[0].VoteCount != 5 || got[0].AvgRating == nil || *got[0].AvgRating != 4.2 {
			t.Errorf("RES001 = %+v, want 5 votes avg 4.2", got[0])
		}
	})

	t.Run("city stats", func(t *testing.T) {
		resp, err := c.restaurants.CityStats(ctx, connect.NewRequest(&apiv1.CityStatsRequest{}))
		if err != nil {
			t.Fatalf("CityStats failed: %v", err)
		}
		want := []struct {
			city  string
			count int
			avg   float64
			votes int64
		}{
			{"Bengaluru", 1, 5.0, 1},
			{"Delhi", 1, 4.2, 5},
		}
		got := resp.Msg.Cities
		if len(got) != len(want) {
			t.Fatalf("cities = %+v", got)
		}
		for i, w := range want {
			g := got[i]
			if g.City != w.city || g.TotalRestaurants != w.count || g.TotalVotes != w.votes {
				t.Errorf("cities[%d] = %+v, want %+v", i, g, w)
			}
			if g.AvgRating == nil || math.Abs(*g.AvgRating-w.avg) > 1e-9 {
				t.Errorf("cities[%d].AvgRating = %v, want %v", i, g.AvgRating, w.avg)
			}
		}
	})
}

func TestProfileActivityAndUpdate(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	erin := c.register(t, "erin")
	c.register(t, "frank")

	if _, err := c.ratings.SubmitRating(ctx, withToken(&apiv1.SubmitRatingRequest{RestaurantID: "RES001", RatingValue: 4}, erin)); err != nil {
		t.Fatalf("SubmitRating failed: %v", err)
	}
	if _, err := c.reviews.SubmitReview(ctx, withToken(&apiv1.SubmitReviewRequest{RestaurantID: "RES002", ReviewText: "crisp dosa"}, erin)); err != nil {
		t.Fatalf("SubmitReview failed: %v", err)
	}

	t.Run("activity", func(t *testing.T) {
		resp, err := c.auth.GetActivity(ctx, withToken(&apiv1.GetActivityRequest{}, erin))
		if err != nil {
			t.Fatalf("GetActivity failed: %v", err)
		}
		if len(resp.Msg.Ratings) != 1 || resp.Msg.Ratings[0].RestaurantName != "Spice Route" {
			t.Errorf("ratings = %+v", resp.Msg.Ratings)
		}
		if len(resp.Msg.Reviews) != 1 || resp.Msg.Reviews[0].RestaurantName != "Dosa Corner" {
			t.Errorf("reviews = %+v", resp.Msg.Reviews)
		}
	})

	t.Run("activity requires auth", func(t *testing.T) {
		_, err := c.auth.GetActivity(ctx, connect.NewRequest(&apiv1.GetActivityRequest{}))
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("code = %v", connect.CodeOf(err))
		}
	})

	str := func(s string) *string { return &s }
	tests := []struct {
		name     string
		req      *apiv1.UpdateProfileRequest
		token    string
		wantCode connect.Code
	}{
		{name: "no fields", req: &apiv1.UpdateProfileRequest{}, token: erin, wantCode: connect.CodeInvalidArgument},
		{name: "blank username", req: &apiv1.UpdateProfileRequest{Username: str("  ")}, token: erin, wantCode: connect.CodeInvalidArgument},
		{name: "malformed email", req: &apiv1.UpdateProfileRequest{Email: str("erin")}, token: erin, wantCode: connect.CodeInvalidArgument},
		{name: "email of another user", req: &apiv1.UpdateProfileRequest{Email: str(" Frank@Example.com ")}, token: erin, wantCode: connect.CodeAlreadyExists},
		{name: "anonymous", req: &apiv1.UpdateProfileRequest{Username: str("x")}, wantCode: connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.auth.UpdateProfile(ctx, withToken(tt.req, tt.token))
			if connect.CodeOf(err) != tt.wantCode {
				t.Errorf("code = %v, want %v", connect.CodeOf(err), tt.wantCode)
			}
		})
	}

	t.Run("update then login with new email", func(t *testing.T) {
		resp, err := c.auth.UpdateProfile(ctx, withToken(&apiv1.UpdateProfileRequest{
			Username: str("erin-k"),
			Email:    str("Erin.K@Example.com"),
		}, erin))
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		if resp.Msg.User.Username != "erin-k" || resp.Msg.User.Email != "erin.k@example.com" {
			t.Errorf("user = %+v", resp.Msg.User)
		}
		if _, err := c.auth.Login(ctx, connect.NewRequest(&apiv1.LoginRequest{Email: "erin.k@example.com", Password: "password123"})); err != nil {
			t.Errorf("Login with new email failed: %v", err)
		}
	})

	t.Run("keeping own email is allowed", func(t *testing.T) {
		if _, err := c.auth.UpdateProfile(ctx, withToken(&apiv1.UpdateProfileRequest{Email: str("erin.k@example.com")}, erin)); err != nil {
			t.Errorf("UpdateProfile failed: %v", err)
		}
	})
}

func TestRestaurantToAPIWithoutImageSeed(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	got := restaurantToAPI(&models.Restaurant{})
	if got.ImageURL != "" {
		t.Errorf("ImageURL = %q, want empty", got.ImageURL)
	}
	if !strings.Contains(buf.String(), "No cover image") {
		t.Errorf("log = %q, want a warning", buf.String())
	}
}
