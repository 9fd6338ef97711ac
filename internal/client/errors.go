package client

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/dineout/pkg/apiv1"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrAuth       = errors.New("authentication required")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflicting write")
	ErrTransport  = errors.New("transport failure")

	// ErrSubmitInFlight rejects a submission while another one for the same
	// restaurant has not finished.
	ErrSubmitInFlight = errors.New("submission already in flight")

	// ErrRefetch means the write was acknowledged but reading back the
	// server state failed. Observers still hold the previous snapshot.
	ErrRefetch = errors.New("refetch after write failed")
)

// RequestError is a classified failure from the server. Kind is one of the
// sentinel errors above.
type RequestError struct {
	Kind    error
	Code    connect.Code
	Field   string
	Message string
	cause   error
}

func (e *RequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *RequestError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.cause}
}

// classify maps a Connect error to a RequestError. Codes with no domain
// meaning are treated as transient transport failures.
func classify(err error) error {
	if err == nil {
		return nil
	}

	code := connect.CodeOf(err)
	re := &RequestError{Code: code, Message: err.Error(), cause: err}
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		re.Message = cerr.Message()
	}

	switch code {
	case connect.CodeInvalidArgument:
		re.Kind = ErrValidation
		if field, reason, ok := apiv1.ValidationField(err); ok {
			re.Field = field
			re.Message = reason
		}
	case connect.CodeUnauthenticated, connect.CodePermissionDenied:
		re.Kind = ErrAuth
	case connect.CodeNotFound:
		re.Kind = ErrNotFound
	case connect.CodeAborted, connect.CodeAlreadyExists:
		re.Kind = ErrConflict
	default:
		re.Kind = ErrTransport
	}
	return re
}
