package service

import (
	"log/slog"

	"github.com/mmynk/dineout/internal/aggregate"
	"github.com/mmynk/dineout/internal/gallery"
	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/pkg/apiv1"
)

func restaurantToAPI(r *models.Restaurant) apiv1.Restaurant {
	image, err := gallery.SelectImage(r.ID, r.Name)
	if err != nil {
		slog.Warn("No cover image for restaurant", "restaurant_id", r.ID, "error", err)
	}
	cuisines := r.Cuisines
	if cuisines == nil {
		cuisines = []string{}
	}
	return apiv1.Restaurant{
		RestaurantID: r.ID,
		Name:         r.Name,
		Address:      r.Address,
		City:         r.City,
		Cuisines:     cuisines,
		PriceRange:   r.PriceRange,
		DiningType:   r.DiningType,
		VoteCount:    r.VoteCount,
		AvgRating:    aggregate.Summary{Count: r.VoteCount, Sum: r.RatingSum}.Display(),
		ReviewCount:  r.ReviewCount,
		ImageURL:     image,
	}
}

func ratingToAPI(r *models.Rating) apiv1.Rating {
	return apiv1.Rating{
		RestaurantID:   r.RestaurantID,
		RestaurantName: r.RestaurantName,
		RatingValue:    r.Value,
		RatingDate:     r.RatedAt,
	}
}

func reviewToAPI(r *models.Review) apiv1.Review {
	return apiv1.Review{
		ReviewID:       r.ID,
		UserID:         r.UserID,
		Username:       r.Username,
		RestaurantID:   r.RestaurantID,
		RestaurantName: r.RestaurantName,
		ReviewText:     r.Text,
		ReviewDate:     r.ReviewedAt,
	}
}

func userToAPI(u *models.User) apiv1.User {
	return apiv1.User{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func cityStatToAPI(c models.CityStats) apiv1.CityStat {
	out := apiv1.CityStat{
		City:             c.City,
		TotalRestaurants: c.Restaurants,
		TotalVotes:       c.TotalVotes,
	}
	if c.AvgRating != nil {
		avg := aggregate.Round2(*c.AvgRating)
		out.AvgRating = &avg
	}
	return out
}
