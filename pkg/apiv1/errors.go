package apiv1

import (
	"errors"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// NewValidationError builds an InvalidArgument error carrying a
// {field, reason} detail.
func NewValidationError(field, reason string, cause error) *connect.Error {
	cerr := connect.NewError(connect.CodeInvalidArgument, cause)
	detail, err := structpb.NewStruct(map[string]any{
		"field":  field,
		"reason": reason,
	})
	if err != nil {
		return cerr
	}
	if d, err := connect.NewErrorDetail(detail); err == nil {
		cerr.AddDetail(d)
	}
	return cerr
}

// ValidationField extracts the {field, reason} detail from err.
func ValidationField(err error) (field, reason string, ok bool) {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return "", "", false
	}
	for _, d := range cerr.Details() {
		msg, valueErr := d.Value()
		if valueErr != nil {
			continue
		}
		s, isStruct := msg.(*structpb.Struct)
		if !isStruct {
			continue
		}
		m := s.AsMap()
		field, _ = m["field"].(string)
		reason, _ = m["reason"].(string)
		return field, reason, field != ""
	}
	return "", "", false
}
