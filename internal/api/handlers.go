package api

import (
	"net/http"
	"strconv"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"

	"github.com/mmynk/dineout/pkg/apiv1"
)

func (h *Handler) submitRating(w http.ResponseWriter, r *http.Request) {
	var body apiv1.SubmitRatingRequest
	if !decode(w, r, &body) {
		return
	}
	resp, err := h.svc.Ratings.SubmitRating(r.Context(), connect.NewRequest(&body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Msg.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp.Msg)
}

func (h *Handler) myRatings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Ratings.ListMyRatings(r.Context(), connect.NewRequest(&apiv1.ListMyRatingsRequest{}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.Ratings)
}

func (h *Handler) myRating(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Ratings.GetMyRating(r.Context(), connect.NewRequest(&apiv1.GetMyRatingRequest{
		RestaurantID: chi.URLParam(r, "id"),
	}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg)
}

func (h *Handler) submitReview(w http.ResponseWriter, r *http.Request) {
	var body apiv1.SubmitReviewRequest
	if !decode(w, r, &body) {
		return
	}
	resp, err := h.svc.Reviews.SubmitReview(r.Context(), connect.NewRequest(&body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Msg.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp.Msg)
}

func (h *Handler) restaurantReviews(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Reviews.ListRestaurantReviews(r.Context(), connect.NewRequest(&apiv1.ListRestaurantReviewsRequest{
		RestaurantID: chi.URLParam(r, "id"),
	}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.Reviews)
}

func (h *Handler) myReview(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Reviews.GetMyReview(r.Context(), connect.NewRequest(&apiv1.GetMyReviewRequest{
		RestaurantID: chi.URLParam(r, "id"),
	}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg)
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Restaurants.GetRestaurant(r.Context(), connect.NewRequest(&apiv1.GetRestaurantRequest{
		RestaurantID: chi.URLParam(r, "id"),
	}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.Restaurant)
}

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &apiv1.ListRestaurantsRequest{
		City:    q.Get("city"),
		Cuisine: q.Get("cuisine"),
		Search:  q.Get("search"),
	}

	var err error
	if req.MinRating, err = floatParam(q.Get("min_rating")); err != nil {
		writeError(w, http.StatusBadRequest, "min_rating must be a number")
		return
	}
	for name, dst := range map[string]*int{"max_price": &req.MaxPrice, "limit": &req.Limit, "offset": &req.Offset} {
		if *dst, err = intParam(q.Get(name)); err != nil {
			writeError(w, http.StatusBadRequest, name+" must be an integer")
			return
		}
	}

	resp, err := h.svc.Restaurants.ListRestaurants(r.Context(), connect.NewRequest(req))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.Restaurants)
}

func (h *Handler) listCities(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Restaurants.ListCities(r.Context(), connect.NewRequest(&apiv1.ListCitiesRequest{}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.Cities)
}

func (h *Handler) listCuisines(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Restaurants.ListCuisines(r.Context(), connect.NewRequest(&apiv1.ListCuisinesRequest{}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.Cuisines)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var body apiv1.RegisterRequest
	if !decode(w, r, &body) {
		return
	}
	resp, err := h.svc.Auth.Register(r.Context(), connect.NewRequest(&body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Msg)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body apiv1.LoginRequest
	if !decode(w, r, &body) {
		return
	}
	resp, err := h.svc.Auth.Login(r.Context(), connect.NewRequest(&body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Auth.GetProfile(r.Context(), connect.NewRequest(&apiv1.GetProfileRequest{}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var body apiv1.UpdateProfileRequest
	if !decode(w, r, &body) {
		return
	}
	resp, err := h.svc.Auth.UpdateProfile(r.Context(), connect.NewRequest(&body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.User)
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Auth.GetActivity(r.Context(), connect.NewRequest(&apiv1.GetActivityRequest{}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg)
}

func (h *Handler) topRated(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Restaurants.TopRated(r.Context(), connect.NewRequest(&apiv1.TopRatedRequest{}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.Restaurants)
}

func (h *Handler) cityStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Restaurants.CityStats(r.Context(), connect.NewRequest(&apiv1.CityStatsRequest{}))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Msg.Cities)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func floatParam(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
