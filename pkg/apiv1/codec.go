// Package apiv1 defines the dineout.v1 Connect services: message types,
// procedure names, handler constructors and clients.
//
// Messages are plain Go structs carried by a JSON codec, so the services
// speak the Connect protocol with application/json bodies:
//
//	curl -X POST localhost:8080/dineout.v1.RatingService/SubmitRating \
//	  -H 'Content-Type: application/json' -H 'Authorization: Bearer ...' \
//	  -d '{"restaurant_id":"RES001","rating_value":4}'
package apiv1

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
)

// JSONCodec marshals plain structs with encoding/json. Its name replaces
// Connect's built-in protobuf JSON codec.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func unaryHandler[Req, Res any](
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) *connect.Handler {
	return connect.NewUnaryHandler(procedure, fn, append(opts, connect.WithCodec(JSONCodec{}))...)
}

func unaryClient[Req, Res any](httpClient connect.HTTPClient, url string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](httpClient, url, append(opts, connect.WithCodec(JSONCodec{}))...)
}

// serviceHandler routes procedures of one service to their handlers.
func serviceHandler(handlers map[string]*connect.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
