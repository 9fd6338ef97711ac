package models

// Restaurant represents a catalog entry together with its rating aggregate.
type Restaurant struct {
	// ID is the stable, unique identifier (e.g. "RES001").
	ID string

	// Name is the display name of the restaurant.
	Name string

	Address string

	City string

	// Cuisines is the ordered cuisine list. Duplicate entries are preserved.
	Cuisines []string

	// PriceRange is the numeric price indicator (1 = cheapest).
	PriceRange int

	// DiningType is a free-form label such as "Casual Dining".
	DiningType string

	// VoteCount is the number of distinct users who rated this restaurant.
	VoteCount int

	// RatingSum is the exact sum of all current rating values.
	// The mean is RatingSum / VoteCount and is undefined when VoteCount is zero.
	RatingSum int64

	// Version increases by one on every aggregate recomputation.
	// Caches use it to refuse overwriting a newer aggregate with an older one.
	Version int64

	// ReviewCount is filled on detail reads only.
	ReviewCount int
}

// RestaurantFilter narrows a catalog listing.
type RestaurantFilter struct {
	City      string
	Cuisine   string
	Search    string
	MinRating float64
	MaxPrice  int
	Limit     int
	Offset    int
}

// CityCount is a city with the number of restaurants in it.
type CityCount struct {
	City  string
	Count int
}

// CuisineCount is a cuisine with the number of restaurants serving it.
type CuisineCount struct {
	Name  string
	Count int
}

// CityStats summarizes the catalog for one city. AvgRating is the mean of
// the rated restaurants' averages and nil when none are rated.
type CityStats struct {
	City        string
	Restaurants int
	AvgRating   *float64
	TotalVotes  int64
}
