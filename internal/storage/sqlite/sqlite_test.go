package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/dineout/internal/models"
	"github.com/mmynk/dineout/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "dineout-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedRestaurant(t *testing.T, store *SQLiteStore, id, name, city string, cuisines ...string) {
	t.Helper()
	err := store.SaveRestaurant(context.Background(), &models.Restaurant{
		ID:         id,
		Name:       name,
		City:       city,
		Cuisines:   cuisines,
		PriceRange: 2,
	})
	if err != nil {
		t.Fatalf("SaveRestaurant(%s) failed: %v", id, err)
	}
}

func TestRestaurants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedRestaurant(t, store, "RES001", "Spice Route", "Delhi", "North Indian", "Mughlai", "North Indian")
	seedRestaurant(t, store, "RES002", "Pasta Place", "Mumbai", "Italian")
	seedRestaurant(t, store, "RES003", "Dosa Corner", "Delhi", "South Indian")

	t.Run("GetRestaurant preserves cuisine order and duplicates", func(t *testing.T) {
		r, err := store.GetRestaurant(ctx, "RES001")
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		want := []string{"North Indian", "Mughlai", "North Indian"}
		if fmt.Sprint(r.Cuisines) != fmt.Sprint(want) {
			t.Errorf("Cuisines = %v, want %v", r.Cuisines, want)
		}
		if r.VoteCount != 0 || r.RatingSum != 0 || r.Version != 0 {
			t.Errorf("fresh aggregate = (%d, %d, v%d), want zeros", r.VoteCount, r.RatingSum, r.Version)
		}
	})

	t.Run("GetRestaurant unknown id", func(t *testing.T) {
		_, err := store.GetRestaurant(ctx, "nope")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("SaveRestaurant keeps aggregate", func(t *testing.T) {
		if _, err := store.UpsertRating(ctx, "u1", "RES002", 4, time.Now()); err != nil {
			t.Fatalf("UpsertRating failed: %v", err)
		}
		seedRestaurant(t, store, "RES002", "Pasta Place Renamed", "Mumbai", "Italian", "Pizza")

		r, err := store.GetRestaurant(ctx, "RES002")
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		if r.Name != "Pasta Place Renamed" || len(r.Cuisines) != 2 {
			t.Errorf("catalog fields not updated: %+v", r)
		}
		if r.VoteCount != 1 || r.RatingSum != 4 {
			t.Errorf("aggregate = (%d, %d), want (1, 4)", r.VoteCount, r.RatingSum)
		}
	})

	t.Run("ListRestaurants orders rated first", func(t *testing.T) {
		list, err := store.ListRestaurants(ctx, models.RestaurantFilter{})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("got %d restaurants, want 3", len(list))
		}
		if list[0].ID != "RES002" {
			t.Errorf("first = %s, want RES002 (only rated)", list[0].ID)
		}
	})

	t.Run("ListRestaurants filters", func(t *testing.T) {
		tests := []struct {
			name   string
			filter models.RestaurantFilter
			want   int
		}{
			{"city", models.RestaurantFilter{City: "delhi"}, 2},
			{"cuisine", models.RestaurantFilter{Cuisine: "Mughlai"}, 1},
			{"search name", models.RestaurantFilter{Search: "dosa"}, 1},
			{"search cuisine", models.RestaurantFilter{Search: "indian"}, 2},
			{"min rating", models.RestaurantFilter{MinRating: 3.5}, 1},
			{"limit", models.RestaurantFilter{Limit: 2}, 2},
			{"offset", models.RestaurantFilter{Limit: 2, Offset: 2}, 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				list, err := store.ListRestaurants(ctx, tt.filter)
				if err != nil {
					t.Fatalf("ListRestaurants failed: %v", err)
				}
				if len(list) != tt.want {
					t.Errorf("got %d, want %d", len(list), tt.want)
				}
			})
		}
	})

	t.Run("ListCities and ListCuisines", func(t *testing.T) {
		cities, err := store.ListCities(ctx)
		if err != nil {
			t.Fatalf("ListCities failed: %v", err)
		}
		if len(cities) != 2 || cities[0].City != "Delhi" || cities[0].Count != 2 {
			t.Errorf("cities = %+v", cities)
		}

		cuisines, err := store.ListCuisines(ctx)
		if err != nil {
			t.Fatalf("ListCuisines failed: %v", err)
		}
		counts := map[string]int{}
		for _, c := range cuisines {
			counts[c.Name] = c.Count
		}
		if counts["North Indian"] != 1 {
			t.Errorf("North Indian count = %d, want 1 (duplicates count once)", counts["North Indian"])
		}
	})
}

func TestUpsertRating(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRestaurant(t, store, "R", "Rated", "Pune")

	t.Run("A5 B3 A1 scenario", func(t *testing.T) {
		steps := []struct {
			user        string
			value       int
			wantCreated bool
			wantCount   int
			wantSum     int64
		}{
			{"A", 5, true, 1, 5},
			{"B", 3, true, 2, 8},
			{"A", 1, false, 2, 4},
		}
		var lastVersion int64
		for _, s := range steps {
			w, err := store.UpsertRating(ctx, s.user, "R", s.value, time.Now())
			if err != nil {
				t.Fatalf("UpsertRating(%s=%d) failed: %v", s.user, s.value, err)
			}
			if w.Created != s.wantCreated {
				t.Errorf("%s=%d created = %v, want %v", s.user, s.value, w.Created, s.wantCreated)
			}
			if w.Restaurant.VoteCount != s.wantCount || w.Restaurant.RatingSum != s.wantSum {
				t.Errorf("%s=%d aggregate = (%d, %d), want (%d, %d)",
					s.user, s.value, w.Restaurant.VoteCount, w.Restaurant.RatingSum, s.wantCount, s.wantSum)
			}
			if w.Drift {
				t.Errorf("%s=%d reported drift on a consistent aggregate", s.user, s.value)
			}
			if w.Restaurant.Version != lastVersion+1 {
				t.Errorf("version = %d, want %d", w.Restaurant.Version, lastVersion+1)
			}
			lastVersion = w.Restaurant.Version
		}
	})

	t.Run("unknown restaurant rolls back", func(t *testing.T) {
		_, err := store.UpsertRating(ctx, "A", "missing", 4, time.Now())
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		r, err := store.GetRating(ctx, "A", "missing")
		if err != nil || r != nil {
			t.Errorf("GetRating = %v, %v; want nil, nil", r, err)
		}
	})

	t.Run("out of range value rejected by schema", func(t *testing.T) {
		before, _ := store.GetRestaurant(ctx, "R")
		if _, err := store.UpsertRating(ctx, "C", "R", 9, time.Now()); err == nil {
			t.Fatal("expected constraint error")
		}
		after, _ := store.GetRestaurant(ctx, "R")
		if after.VoteCount != before.VoteCount || after.Version != before.Version {
			t.Errorf("aggregate changed after failed write: %+v -> %+v", before, after)
		}
	})

	t.Run("GetRating and ListRatingsByUser", func(t *testing.T) {
		seedRestaurant(t, store, "R2", "Second", "Pune")
		base := time.Now()
		if _, err := store.UpsertRating(ctx, "A", "R2", 2, base.Add(time.Minute)); err != nil {
			t.Fatalf("UpsertRating failed: %v", err)
		}

		r, err := store.GetRating(ctx, "A", "R")
		if err != nil {
			t.Fatalf("GetRating failed: %v", err)
		}
		if r == nil || r.Value != 1 || r.RestaurantName != "Rated" {
			t.Errorf("GetRating = %+v", r)
		}

		list, err := store.ListRatingsByUser(ctx, "A")
		if err != nil {
			t.Fatalf("ListRatingsByUser failed: %v", err)
		}
		if len(list) != 2 || list[0].RestaurantID != "R2" {
			t.Errorf("list = %+v, want R2 first", list)
		}
	})

	t.Run("drifted aggregate is corrected by recount", func(t *testing.T) {
		if _, err := store.db.ExecContext(ctx,
			"UPDATE restaurants SET vote_count = 7, rating_sum = 30 WHERE id = 'R'"); err != nil {
			t.Fatalf("corrupting aggregate failed: %v", err)
		}
		w, err := store.UpsertRating(ctx, "B", "R", 4, time.Now())
		if err != nil {
			t.Fatalf("UpsertRating failed: %v", err)
		}
		if !w.Drift {
			t.Error("Drift = false, want true")
		}
		// A=1 and B=4 are the only stored ratings.
		if w.Restaurant.VoteCount != 2 || w.Restaurant.RatingSum != 5 {
			t.Errorf("aggregate = (%d, %d), want (2, 5)", w.Restaurant.VoteCount, w.Restaurant.RatingSum)
		}

		w, err = store.UpsertRating(ctx, "B", "R", 3, time.Now())
		if err != nil {
			t.Fatalf("UpsertRating failed: %v", err)
		}
		if w.Drift {
			t.Error("Drift = true after correction, want false")
		}
	})
}

func TestUpsertRatingConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRestaurant(t, store, "R", "Busy", "Goa")

	const raters = 20
	var wg sync.WaitGroup
	errs := make(chan error, raters)
	for i := 0; i < raters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.UpsertRating(ctx, fmt.Sprintf("user-%d", i), "R", i%5+1, time.Now())
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent UpsertRating failed: %v", err)
		}
	}

	r, err := store.GetRestaurant(ctx, "R")
	if err != nil {
		t.Fatalf("GetRestaurant failed: %v", err)
	}
	if r.VoteCount != raters {
		t.Errorf("VoteCount = %d, want %d", r.VoteCount, raters)
	}
	// 20 raters cycling 1..5 sum to 60.
	if r.RatingSum != 60 {
		t.Errorf("RatingSum = %d, want 60", r.RatingSum)
	}
	if r.Version != raters {
		t.Errorf("Version = %d, want %d", r.Version, raters)
	}
	mean := float64(r.RatingSum) / float64(r.VoteCount)
	if math.Abs(mean-3.0) > 1e-9 {
		t.Errorf("mean = %v, want 3.0", mean)
	}
}

func TestReviews(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRestaurant(t, store, "R", "Reviewed", "Goa")

	user := models.NewUser("a@example.com", "alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	t.Run("create then replace", func(t *testing.T) {
		first := &models.Review{UserID: user.ID, RestaurantID: "R", Text: "good", ReviewedAt: time.Now()}
		created, err := store.UpsertReview(ctx, first)
		if err != nil {
			t.Fatalf("UpsertReview failed: %v", err)
		}
		if !created || first.ID == "" {
			t.Errorf("first write: created=%v id=%q", created, first.ID)
		}

		second := &models.Review{UserID: user.ID, RestaurantID: "R", Text: "great", ReviewedAt: first.ReviewedAt.Add(time.Second)}
		created, err = store.UpsertReview(ctx, second)
		if err != nil {
			t.Fatalf("UpsertReview failed: %v", err)
		}
		if created || second.ID != first.ID {
			t.Errorf("replace: created=%v id=%q, want false %q", created, second.ID, first.ID)
		}

		got, err := store.GetReview(ctx, user.ID, "R")
		if err != nil {
			t.Fatalf("GetReview failed: %v", err)
		}
		if got.Text != "great" || got.Username != "alice" {
			t.Errorf("GetReview = %+v", got)
		}
		if !got.ReviewedAt.After(first.ReviewedAt) {
			t.Errorf("ReviewedAt not refreshed: %v", got.ReviewedAt)
		}
	})

	t.Run("reviews do not touch aggregate", func(t *testing.T) {
		r, _ := store.GetRestaurant(ctx, "R")
		if r.VoteCount != 0 || r.Version != 0 {
			t.Errorf("aggregate changed by review: %+v", r)
		}
		n, err := store.CountReviews(ctx, "R")
		if err != nil || n != 1 {
			t.Errorf("CountReviews = %d, %v; want 1", n, err)
		}
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		_, err := store.UpsertReview(ctx, &models.Review{UserID: user.ID, RestaurantID: "missing", Text: "x", ReviewedAt: time.Now()})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("list includes unknown author", func(t *testing.T) {
		_, err := store.UpsertReview(ctx, &models.Review{UserID: "ghost", RestaurantID: "R", Text: "boo", ReviewedAt: time.Now().Add(time.Hour)})
		if err != nil {
			t.Fatalf("UpsertReview failed: %v", err)
		}
		list, err := store.ListReviewsByRestaurant(ctx, "R")
		if err != nil {
			t.Fatalf("ListReviewsByRestaurant failed: %v", err)
		}
		if len(list) != 2 || list[0].UserID != "ghost" || list[0].Username != "" {
			t.Errorf("list = %+v", list)
		}
	})
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("bob@example.com", "bob", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	t.Run("duplicate email", func(t *testing.T) {
		err := store.CreateUser(ctx, models.NewUser("bob@example.com", "bob2", "hash"))
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("lookups", func(t *testing.T) {
		byEmail, err := store.GetUserByEmail(ctx, "bob@example.com")
		if err != nil || byEmail == nil || byEmail.ID != user.ID {
			t.Errorf("GetUserByEmail = %+v, %v", byEmail, err)
		}
		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil || byID == nil || byID.Username != "bob" {
			t.Errorf("GetUserByID = %+v, %v", byID, err)
		}
		missing, err := store.GetUserByID(ctx, "nope")
		if err != nil || missing != nil {
			t.Errorf("GetUserByID(nope) = %+v, %v", missing, err)
		}
	})

	t.Run("stats", func(t *testing.T) {
		seedRestaurant(t, store, "D1", "One", "Delhi")
		seedRestaurant(t, store, "D2", "Two", "Delhi")
		seedRestaurant(t, store, "M1", "Three", "Mumbai")
		for _, id := range []string{"D1", "D2", "M1"} {
			if _, err := store.UpsertRating(ctx, user.ID, id, 4, time.Now()); err != nil {
				t.Fatalf("UpsertRating failed: %v", err)
			}
		}
		if _, err := store.UpsertReview(ctx, &models.Review{UserID: user.ID, RestaurantID: "M1", Text: "ok", ReviewedAt: time.Now()}); err != nil {
			t.Fatalf("UpsertReview failed: %v", err)
		}

		stats, err := store.GetUserStats(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserStats failed: %v", err)
		}
		if stats.RatingsCount != 3 || stats.ReviewsCount != 1 || stats.FavoriteCity != "Delhi" {
			t.Errorf("stats = %+v", stats)
		}

		empty, err := store.GetUserStats(ctx, "nobody")
		if err != nil || empty.RatingsCount != 0 || empty.FavoriteCity != "" {
			t.Errorf("empty stats = %+v, %v", empty, err)
		}
	})
}

func TestAnalyticsQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedRestaurant(t, store, "A", "Alpha", "Delhi")
	seedRestaurant(t, store, "B", "Bravo", "Delhi")
	seedRestaurant(t, store, "C", "Charlie", "Mumbai")
	seedRestaurant(t, store, "D", "Delta", "Mumbai")
	seedRestaurant(t, store, "E", "Echo", "Agra")

	rate := func(restaurantID string, values ...int) {
		t.Helper()
		for i, v := range values {
			if _, err := store.UpsertRating(ctx, fmt.Sprintf("u%d", i), restaurantID, v, time.Now()); err != nil {
				t.Fatalf("UpsertRating(%s) failed: %v", restaurantID, err)
			}
		}
	}
	rate("A", 4, 4, 4, 4, 4)    // 4.0 over 5
	rate("B", 4, 4, 4, 4, 4, 4) // 4.0 over 6, ranks above A
	rate("C", 5, 5, 5, 5, 4)    // 4.8 over 5
	rate("D", 5, 5)             // too few votes

	t.Run("TopRated", func(t *testing.T) {
		got, err := store.TopRated(ctx, 5, 10)
		if err != nil {
			t.Fatalf("TopRated failed: %v", err)
		}
		var ids []string
		for _, r := range got {
			ids = append(ids, r.ID)
		}
		if fmt.Sprint(ids) != "[C B A]" {
			t.Errorf("order = %v, want [C B A]", ids)
		}

		limited, err := store.TopRated(ctx, 5, 1)
		if err != nil || len(limited) != 1 || limited[0].ID != "C" {
			t.Errorf("TopRated limit 1 = %v, %v", limited, err)
		}
	})

	t.Run("CityStats", func(t *testing.T) {
		got, err := store.CityStats(ctx)
		if err != nil {
			t.Fatalf("CityStats failed: %v", err)
		}
		tests := []struct {
			city        string
			restaurants int
			avg         *float64
			votes       int64
		}{
			{"Agra", 1, nil, 0},
			{"Delhi", 2, ptr(4.0), 11},
			{"Mumbai", 2, ptr(4.9), 7},
		}
		if len(got) != len(tests) {
			t.Fatalf("CityStats = %+v", got)
		}
		for i, tt := range tests {
			g := got[i]
			if g.City != tt.city || g.Restaurants != tt.restaurants || g.TotalVotes != tt.votes {
				t.Errorf("stats[%d] = %+v, want %s/%d/%d", i, g, tt.city, tt.restaurants, tt.votes)
			}
			switch {
			case tt.avg == nil && g.AvgRating != nil:
				t.Errorf("%s avg = %v, want nil", tt.city, *g.AvgRating)
			case tt.avg != nil && (g.AvgRating == nil || math.Abs(*g.AvgRating-*tt.avg) > 1e-9):
				t.Errorf("%s avg = %v, want %v", tt.city, g.AvgRating, *tt.avg)
			}
		}
	})
}

func ptr[T any](v T) *T { return &v }

func TestUpdateUserAndActivity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedRestaurant(t, store, "R1", "First", "Pune")
	seedRestaurant(t, store, "R2", "Second", "Pune")

	carol := models.NewUser("carol@example.com", "carol", "hash")
	dan := models.NewUser("dan@example.com", "dan", "hash")
	for _, u := range []*models.User{carol, dan} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		id      string
		upd     models.ProfileUpdate
		wantErr error
		want    string
	}{
		{name: "username only", id: carol.ID, upd: models.ProfileUpdate{Username: ptr("caz")}, want: "caz/carol@example.com"},
		{name: "email only", id: carol.ID, upd: models.ProfileUpdate{Email: ptr("caz@example.com")}, want: "caz/caz@example.com"},
		{name: "nothing", id: carol.ID, want: "caz/caz@example.com"},
		{name: "email taken", id: carol.ID, upd: models.ProfileUpdate{Email: ptr("dan@example.com")}, wantErr: storage.ErrConflict},
		{name: "unknown user", id: "nope", upd: models.ProfileUpdate{Username: ptr("x")}, wantErr: storage.ErrNotFound},
		{name: "unknown user no fields", id: "nope", wantErr: storage.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := store.UpdateUser(ctx, tt.id, tt.upd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateUser failed: %v", err)
			}
			if got := u.Username + "/" + u.Email; got != tt.want {
				t.Errorf("user = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("activity", func(t *testing.T) {
		base := time.Now()
		if _, err := store.UpsertRating(ctx, carol.ID, "R1", 3, base); err != nil {
			t.Fatalf("UpsertRating failed: %v", err)
		}
		if _, err := store.UpsertRating(ctx, carol.ID, "R2", 5, base.Add(time.Minute)); err != nil {
			t.Fatalf("UpsertRating failed: %v", err)
		}
		if _, err := store.UpsertReview(ctx, &models.Review{UserID: carol.ID, RestaurantID: "R1", Text: "fine", ReviewedAt: base}); err != nil {
			t.Fatalf("UpsertReview failed: %v", err)
		}
		if _, err := store.UpsertReview(ctx, &models.Review{UserID: dan.ID, RestaurantID: "R2", Text: "not mine", ReviewedAt: base}); err != nil {
			t.Fatalf("UpsertReview failed: %v", err)
		}

		a, err := store.GetUserActivity(ctx, carol.ID)
		if err != nil {
			t.Fatalf("GetUserActivity failed: %v", err)
		}
		if len(a.Ratings) != 2 || a.Ratings[0].RestaurantName != "Second" {
			t.Errorf("ratings = %+v, want Second first", a.Ratings)
		}
		if len(a.Reviews) != 1 || a.Reviews[0].RestaurantName != "First" || a.Reviews[0].Username != "caz" {
			t.Errorf("reviews = %+v", a.Reviews)
		}

		empty, err := store.GetUserActivity(ctx, "nobody")
		if err != nil || len(empty.Ratings) != 0 || len(empty.Reviews) != 0 {
			t.Errorf("empty activity = %+v, %v", empty, err)
		}
	})
}
