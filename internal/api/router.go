// Package api exposes the REST gateway under /api. Handlers translate JSON
// bodies into the same service calls the Connect transport uses.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mmynk/dineout/internal/auth"
	"github.com/mmynk/dineout/internal/middleware"
	"github.com/mmynk/dineout/pkg/apiv1"
)

// Services are the Connect handlers the gateway delegates to.
type Services struct {
	Ratings     apiv1.RatingServiceHandler
	Reviews     apiv1.ReviewServiceHandler
	Restaurants apiv1.RestaurantServiceHandler
	Auth        apiv1.AuthServiceHandler
}

type Handler struct {
	svc Services
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// NewRouter mounts the REST routes. Routes that need a caller return 401
// when the bearer credential is missing or invalid.
func NewRouter(h *Handler, jwtManager *auth.JWTManager) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.HTTPOptionalAuth(jwtManager))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
		r.Get("/profile", h.profile)
		r.Put("/profile", h.updateProfile)
		r.Get("/profile/activity", h.activity)

		r.Get("/analytics/top-rated", h.topRated)
		r.Get("/analytics/city-stats", h.cityStats)

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", h.listRestaurants)
			r.Get("/cities", h.listCities)
			r.Get("/categories", h.listCuisines)
			r.Get("/{id}", h.getRestaurant)
		})

		r.Post("/ratings", h.submitRating)
		r.Get("/ratings/user", h.myRatings)
		r.Get("/ratings/restaurant/{id}", h.myRating)

		r.Post("/reviews", h.submitReview)
		r.Get("/reviews/restaurant/{id}", h.restaurantReviews)
		r.Get("/reviews/restaurant/{id}/mine", h.myReview)
	})
	return r
}
