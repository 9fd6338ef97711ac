package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/dineout/internal/registry"
	"github.com/mmynk/dineout/internal/storage"
	"github.com/mmynk/dineout/pkg/apiv1"
)

// toConnectError maps domain errors onto Connect codes. Unknown errors
// become CodeInternal without leaking their message.
func toConnectError(err error) error {
	var ve *registry.ValidationError
	switch {
	case errors.As(err, &ve):
		return apiv1.NewValidationError(ve.Field, ve.Reason, err)
	case errors.Is(err, registry.ErrAuth):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, registry.ErrConflict), errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

func requireUser(userID string) error {
	if userID == "" {
		return connect.NewError(connect.CodeUnauthenticated, registry.ErrAuth)
	}
	return nil
}

func requireRestaurantID(id string) error {
	if id == "" {
		return apiv1.NewValidationError("restaurant_id", "is required", registry.ErrValidation)
	}
	return nil
}
