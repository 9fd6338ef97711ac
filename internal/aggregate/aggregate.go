// Package aggregate computes restaurant rating aggregates.
//
// The aggregate is kept as an exact integer sum and count. The mean is only
// materialized as a float64 on demand, and rounding to one decimal happens at
// the presentation boundary.
package aggregate

import (
	"fmt"
	"math"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Summary is the exact (count, sum) pair for one restaurant.
type Summary struct {
	Count int
	Sum   int64
}

// Validate reports whether v is an allowed rating value.
func Validate(v int) error {
	if v < MinRating || v > MaxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", MinRating, MaxRating, v)
	}
	return nil
}

// Mean returns the arithmetic mean at full precision.
// ok is false when there are no ratings.
func (s Summary) Mean() (mean float64, ok bool) {
	if s.Count == 0 {
		return 0, false
	}
	return float64(s.Sum) / float64(s.Count), true
}

// Upsert returns the summary after a single rating write.
// previous is nil for a first-time rating (count grows by one); otherwise the
// previous value is replaced and the count is unchanged.
func (s Summary) Upsert(previous *int, value int) Summary {
	if previous == nil {
		return Summary{Count: s.Count + 1, Sum: s.Sum + int64(value)}
	}
	return Summary{Count: s.Count, Sum: s.Sum - int64(*previous) + int64(value)}
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Display returns the rounded mean for presentation, or nil when undefined.
func (s Summary) Display() *float64 {
	mean, ok := s.Mean()
	if !ok {
		return nil
	}
	r := Round1(mean)
	return &r
}
