// Command dineout submits ratings and reviews and prints the restaurant state
// read back from the server.
//
//	dineout [-server URL] [-token TOKEN] show RES001
//	dineout rate RES001 4
//	dineout review RES001 "Great thali"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mmynk/dineout/internal/client"
	"github.com/mmynk/dineout/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	serverURL := flag.String("server", getEnv("DINEOUT_SERVER", "http://localhost:8080"), "server base URL")
	token := flag.String("token", os.Getenv("DINEOUT_TOKEN"), "bearer token")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	logging.Setup()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: dineout [flags] show|rate|review RESTAURANT_ID [VALUE]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(&http.Client{Timeout: *timeout}, *serverURL, client.StaticToken(*token))
	c.Subscribe(printSnapshot)

	if err := run(ctx, c, args[0], args[1], args[2:]); err != nil {
		slog.Error("Command failed", "command", args[0], "error", err)
		if errors.Is(err, client.ErrAuth) {
			fmt.Fprintln(os.Stderr, "log in and pass -token or DINEOUT_TOKEN")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Controller, cmd, restaurantID string, rest []string) error {
	switch cmd {
	case "show":
		_, err := c.Refresh(ctx, restaurantID)
		return err
	case "rate":
		if len(rest) != 1 {
			return errors.New("rate needs a value between 1 and 5")
		}
		value, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("parse rating: %w", err)
		}
		out, err := c.SubmitRating(ctx, restaurantID, value)
		if out != nil {
			verb := "updated"
			if out.Result.Created {
				verb = "created"
			}
			fmt.Printf("rating %s\n", verb)
		}
		return err
	case "review":
		if len(rest) != 1 {
			return errors.New("review needs the review text")
		}
		out, err := c.SubmitReview(ctx, restaurantID, rest[0])
		if out != nil {
			verb := "updated"
			if out.Result.Created {
				verb = "created"
			}
			fmt.Printf("review %s\n", verb)
		}
		return err
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func printSnapshot(s client.Snapshot) {
	r := s.Restaurant
	avg := "no ratings yet"
	if r.AvgRating != nil {
		avg = fmt.Sprintf("%.1f", *r.AvgRating)
	}
	fmt.Printf("%s (%s, %s)\n  rating: %s from %d votes, %d reviews\n", r.Name, r.RestaurantID, r.City, avg, r.VoteCount, r.ReviewCount)
	if s.MyRating != nil {
		fmt.Printf("  your rating: %d\n", s.MyRating.RatingValue)
	}
	if s.MyReview != nil {
		fmt.Printf("  your review: %s\n", s.MyReview.ReviewText)
	}
	for _, rv := range s.Reviews {
		fmt.Printf("  - %s: %s\n", rv.Username, rv.ReviewText)
	}
}
