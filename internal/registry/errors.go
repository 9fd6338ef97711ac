package registry

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid submission")
	ErrAuth       = errors.New("authentication required")
	ErrNotFound   = errors.New("restaurant not found")

	// ErrConflict means a concurrent write won and retrying did not help.
	ErrConflict = errors.New("conflicting concurrent submission")

	// ErrInFlight means the same user already has a submission in progress
	// for the same restaurant.
	ErrInFlight = fmt.Errorf("submission already in flight: %w", ErrConflict)
)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
