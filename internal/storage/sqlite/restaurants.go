package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/storage"
)

const restaurantColumns = `id, name, address, city, price_range, dining_type, vote_count, rating_sum, version`

// SaveRestaurant upserts catalog fields and replaces the cuisine list.
// The aggregate columns keep their current values.
func (s *SQLiteStore) SaveRestaurant(ctx context.Context, r *models.Restaurant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapBusy(err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO restaurants (id, name, address, city, price_range, dining_type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			city = excluded.city,
			price_range = excluded.price_range,
			dining_type = excluded.dining_type
	`, r.ID, r.Name, r.Address, r.City, r.PriceRange, r.DiningType)
	if err != nil {
		return fmt.Errorf("failed to save restaurant: %w", mapBusy(err))
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM restaurant_cuisines WHERE restaurant_id = ?", r.ID); err != nil {
		return fmt.Errorf("failed to clear cuisines: %w", err)
	}
	for i, c := range r.Cuisines {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO restaurant_cuisines (restaurant_id, position, cuisine) VALUES (?, ?, ?)",
			r.ID, i, c,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cuisine: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapBusy(err))
	}
	return nil
}

// GetRestaurant retrieves a restaurant with its cuisines and aggregate.
func (s *SQLiteStore) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	return getRestaurant(ctx, s.db, id)
}

func getRestaurant(ctx context.Context, q queryer, id string) (*models.Restaurant, error) {
	r := &models.Restaurant{}
	err := q.QueryRowContext(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?", id,
	).Scan(&r.ID, &r.Name, &r.Address, &r.City, &r.PriceRange, &r.DiningType, &r.VoteCount, &r.RatingSum, &r.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("restaurant %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}

	cuisines, err := loadCuisines(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	r.Cuisines = cuisines[id]
	return r, nil
}

// ListRestaurants returns catalog entries matching f, best rated first.
// Unrated restaurants sort after rated ones.
func (s *SQLiteStore) ListRestaurants(ctx context.Context, f models.RestaurantFilter) ([]*models.Restaurant, error) {
	var (
		where []string
		args  []any
	)
	if f.City != "" {
		where = append(where, "LOWER(city) = LOWER(?)")
		args = append(args, f.City)
	}
	if f.Cuisine != "" {
		where = append(where, `EXISTS (SELECT 1 FROM restaurant_cuisines rc
			WHERE rc.restaurant_id = restaurants.id AND LOWER(rc.cuisine) = LOWER(?))`)
		args = append(args, f.Cuisine)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		where = append(where, `(LOWER(name) LIKE ? OR LOWER(city) LIKE ? OR EXISTS (
			SELECT 1 FROM restaurant_cuisines rc
			WHERE rc.restaurant_id = restaurants.id AND LOWER(rc.cuisine) LIKE ?))`)
		args = append(args, like, like, like)
	}
	if f.MinRating > 0 {
		where = append(where, "COALESCE(avg_rating, 0) >= ?")
		args = append(args, f.MinRating)
	}
	if f.MaxPrice > 0 {
		where = append(where, "price_range <= ?")
		args = append(args, f.MaxPrice)
	}

	query := "SELECT " + restaurantColumns + " FROM restaurants"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY avg_rating IS NULL, avg_rating DESC, vote_count DESC, name ASC"

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(f.Offset, 0))

	return s.queryRestaurants(ctx, query, args...)
}

// TopRated returns the best rated restaurants with at least minVotes votes.
func (s *SQLiteStore) TopRated(ctx context.Context, minVotes, limit int) ([]*models.Restaurant, error) {
	return s.queryRestaurants(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants
		WHERE vote_count >= ? AND avg_rating IS NOT NULL
		ORDER BY avg_rating DESC, vote_count DESC, name ASC
		LIMIT ?
	`, max(minVotes, 1), limit)
}

// queryRestaurants runs a query selecting restaurantColumns and attaches
// each row's cuisines.
func (s *SQLiteStore) queryRestaurants(ctx context.Context, query string, args ...any) ([]*models.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer rows.Close()

	var (
		out []*models.Restaurant
		ids []string
	)
	for rows.Next() {
		r := &models.Restaurant{}
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.City, &r.PriceRange, &r.DiningType, &r.VoteCount, &r.RatingSum, &r.Version); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		out = append(out, r)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate restaurants: %w", err)
	}

	cuisines, err := loadCuisines(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range out {
		r.Cuisines = cuisines[r.ID]
	}
	return out, nil
}

// loadCuisines returns the ordered cuisine lists for the given restaurants.
func loadCuisines(ctx context.Context, q queryer, ids []string) (map[string][]string, error) {
	result := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT restaurant_id, cuisine
		FROM restaurant_cuisines
		WHERE restaurant_id IN (?` + repeatPlaceholder(len(ids)-1) + `)
		ORDER BY restaurant_id, position`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get cuisines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, cuisine string
		if err := rows.Scan(&id, &cuisine); err != nil {
			return nil, fmt.Errorf("failed to scan cuisine: %w", err)
		}
		result[id] = append(result[id], cuisine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cuisines: %w", err)
	}
	return result, nil
}

// ListCities returns every city with its restaurant count, largest first.
func (s *SQLiteStore) ListCities(ctx context.Context) ([]models.CityCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city, COUNT(*) AS n
		FROM restaurants
		WHERE city != ''
		GROUP BY city
		ORDER BY n DESC, city ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	var out []models.CityCount
	for rows.Next() {
		var c models.CityCount
		if err := rows.Scan(&c.City, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCuisines returns every cuisine with the number of restaurants
// serving it. A restaurant listing a cuisine twice counts once.
func (s *SQLiteStore) ListCuisines(ctx context.Context) ([]models.CuisineCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cuisine, COUNT(DISTINCT restaurant_id) AS n
		FROM restaurant_cuisines
		GROUP BY cuisine
		ORDER BY n DESC, cuisine ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cuisines: %w", err)
	}
	defer rows.Close()

	var out []models.CuisineCount
	for rows.Next() {
		var c models.CuisineCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan cuisine: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountReviews returns the number of reviews for a restaurant.
func (s *SQLiteStore) CountReviews(ctx context.Context, restaurantID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reviews WHERE restaurant_id = ?", restaurantID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return n, nil
}

// CityStats summarizes restaurants per city. Unrated restaurants count
// toward Restaurants but not toward AvgRating.
func (s *SQLiteStore) CityStats(ctx context.Context) ([]models.CityStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city, COUNT(*), AVG(avg_rating), COALESCE(SUM(vote_count), 0)
		FROM restaurants
		WHERE city != ''
		GROUP BY city
		ORDER BY city ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get city stats: %w", err)
	}
	defer rows.Close()

	var out []models.CityStats
	for rows.Next() {
		var (
			c   models.CityStats
			avg sql.NullFloat64
		)
		if err := rows.Scan(&c.City, &c.Restaurants, &avg, &c.TotalVotes); err != nil {
			return nil, fmt.Errorf("failed to scan city stats: %w", err)
		}
		if avg.Valid {
			c.AvgRating = &avg.Float64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
