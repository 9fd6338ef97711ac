package apiv1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
)

type fakeRatingService struct{}

func (fakeRatingService) SubmitRating(_ context.Context, req *connect.Request[SubmitRatingRequest]) (*connect.Response[SubmitRatingResponse], error) {
	if req.Msg.RatingValue < 1 {
		return nil, NewValidationError("rating_value", "must be between 1 and 5", errors.New("bad rating"))
	}
	avg := float64(req.Msg.RatingValue)
	return connect.NewResponse(&SubmitRatingResponse{
		RestaurantID: req.Msg.RestaurantID,
		VoteCount:    1,
		AvgRating:    &avg,
		Created:      true,
	}), nil
}

func (fakeRatingService) ListMyRatings(context.Context, *connect.Request[ListMyRatingsRequest]) (*connect.Response[ListMyRatingsResponse], error) {
	return connect.NewResponse(&ListMyRatingsResponse{}), nil
}

func (fakeRatingService) GetMyRating(context.Context, *connect.Request[GetMyRatingRequest]) (*connect.Response[GetMyRatingResponse], error) {
	return connect.NewResponse(&GetMyRatingResponse{}), nil
}

func TestRatingServiceRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(NewRatingServiceHandler(fakeRatingService{}))
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewRatingServiceClient(server.Client(), server.URL)
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		resp, err := client.SubmitRating(ctx, connect.NewRequest(&SubmitRatingRequest{RestaurantID: "R1", RatingValue: 4}))
		if err != nil {
			t.Fatalf("SubmitRating failed: %v", err)
		}
		if resp.Msg.RestaurantID != "R1" || resp.Msg.AvgRating == nil || *resp.Msg.AvgRating != 4 {
			t.Errorf("resp = %+v", resp.Msg)
		}
	})

	t.Run("nil pointer round trips", func(t *testing.T) {
		resp, err := client.GetMyRating(ctx, connect.NewRequest(&GetMyRatingRequest{RestaurantID: "R1"}))
		if err != nil {
			t.Fatalf("GetMyRating failed: %v", err)
		}
		if resp.Msg.Rating != nil {
			t.Errorf("Rating = %+v, want nil", resp.Msg.Rating)
		}
	})

	t.Run("validation detail", func(t *testing.T) {
		_, err := client.SubmitRating(ctx, connect.NewRequest(&SubmitRatingRequest{RestaurantID: "R1"}))
		if connect.CodeOf(err) != connect.CodeInvalidArgument {
			t.Fatalf("code = %v, want InvalidArgument", connect.CodeOf(err))
		}
		field, reason, ok := ValidationField(err)
		if !ok || field != "rating_value" || reason == "" {
			t.Errorf("detail = %q %q %v", field, reason, ok)
		}
	})

	t.Run("unknown procedure", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/"+RatingServiceName+"/Nope", "application/json", nil)
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestJSONCodecEmptyBody(t *testing.T) {
	var req ListMyRatingsRequest
	if err := (JSONCodec{}).Unmarshal(nil, &req); err != nil {
		t.Errorf("Unmarshal(nil) = %v", err)
	}
}
