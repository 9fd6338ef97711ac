// Package client keeps a caller's view of restaurants in sync with the server.
// Every submission is a single composed operation: the write is sent, awaited,
// and followed by a read of the restaurant aggregate, its review list and the
// caller's own rating and review. Observers only ever see server state.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/dineout/internal/aggregate"
	"github.com/mmynk/dineout/pkg/apiv1"
)

// Snapshot is the server state for one restaurant as seen by the caller.
// MyRating and MyReview are nil when the caller has none or is anonymous.
type Snapshot struct {
	RestaurantID string
	Restaurant   apiv1.Restaurant
	// Reviews is every review of the restaurant, newest first.
	Reviews      []apiv1.Review
	MyRating     *apiv1.Rating
	MyReview     *apiv1.Review
	FetchedAt    time.Time
}

type RatingOutcome struct {
	Result   *apiv1.SubmitRatingResponse
	Snapshot Snapshot
}

type ReviewOutcome struct {
	Result   *apiv1.SubmitReviewResponse
	Snapshot Snapshot
}

type Controller struct {
	ratings     apiv1.RatingServiceClient
	reviews     apiv1.ReviewServiceClient
	restaurants apiv1.RestaurantServiceClient
	creds       CredentialProvider
	logger      *slog.Logger
	now         func() time.Time

	mu        sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int
	inFlight  map[string]bool
	// seq orders reads per restaurant; a read that started earlier never
	// replaces the published result of one that started later.
	seq       map[string]uint64
	published map[string]uint64
	latest    map[string]Snapshot
}

// New builds a controller talking to the server at baseURL.
func New(httpClient connect.HTTPClient, baseURL string, creds CredentialProvider, opts ...connect.ClientOption) *Controller {
	if creds == nil {
		creds = StaticToken("")
	}
	opts = append(opts, connect.WithInterceptors(credentialInterceptor(creds)))
	return NewWithClients(
		apiv1.NewRatingServiceClient(httpClient, baseURL, opts...),
		apiv1.NewReviewServiceClient(httpClient, baseURL, opts...),
		apiv1.NewRestaurantServiceClient(httpClient, baseURL, opts...),
		creds,
		slog.Default(),
	)
}

// NewWithClients builds a controller over existing service clients.
func NewWithClients(
	ratings apiv1.RatingServiceClient,
	reviews apiv1.ReviewServiceClient,
	restaurants apiv1.RestaurantServiceClient,
	creds CredentialProvider,
	logger *slog.Logger,
) *Controller {
	if creds == nil {
		creds = StaticToken("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		ratings:     ratings,
		reviews:     reviews,
		restaurants: restaurants,
		creds:       creds,
		logger:      logger,
		now:         time.Now,
		observers:   make(map[int]func(Snapshot)),
		inFlight:    make(map[string]bool),
		seq:         make(map[string]uint64),
		published:   make(map[string]uint64),
		latest:      make(map[string]Snapshot),
	}
}

// Subscribe registers fn for every published snapshot and returns a func that
// removes it. fn runs on the goroutine that completed the read.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// Latest returns the last published snapshot for restaurantID.
func (c *Controller) Latest(restaurantID string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.latest[restaurantID]
	return s, ok
}

// Refresh reads the current server state for restaurantID and publishes it.
func (c *Controller) Refresh(ctx context.Context, restaurantID string) (Snapshot, error) {
	if restaurantID == "" {
		return Snapshot{}, &RequestError{Kind: ErrValidation, Field: "restaurant_id", Message: "is required"}
	}
	return c.refetch(ctx, restaurantID)
}

// SubmitRating writes the caller's rating, then refetches and publishes the
// restaurant. If the write succeeded but the read failed, the outcome carries
// the write result and the error wraps ErrRefetch.
func (c *Controller) SubmitRating(ctx context.Context, restaurantID string, value int) (*RatingOutcome, error) {
	if restaurantID == "" {
		return nil, &RequestError{Kind: ErrValidation, Field: "restaurant_id", Message: "is required"}
	}
	if err := aggregate.Validate(value); err != nil {
		return nil, &RequestError{Kind: ErrValidation, Field: "rating_value", Message: err.Error(), cause: err}
	}

	release, err := c.enter(restaurantID)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := c.ratings.SubmitRating(ctx, connect.NewRequest(&apiv1.SubmitRatingRequest{
		RestaurantID: restaurantID,
		RatingValue:  value,
	}))
	if err != nil {
		return nil, classify(err)
	}

	out := &RatingOutcome{Result: resp.Msg}
	snap, err := c.refetch(ctx, restaurantID)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrRefetch, err)
	}
	out.Snapshot = snap
	return out, nil
}

// SubmitReview writes the caller's review, then refetches and publishes the
// restaurant. Refetch failures are reported as in SubmitRating.
func (c *Controller) SubmitReview(ctx context.Context, restaurantID, text string) (*ReviewOutcome, error) {
	if restaurantID == "" {
		return nil, &RequestError{Kind: ErrValidation, Field: "restaurant_id", Message: "is required"}
	}

	release, err := c.enter(restaurantID)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := c.reviews.SubmitReview(ctx, connect.NewRequest(&apiv1.SubmitReviewRequest{
		RestaurantID: restaurantID,
		ReviewText:   text,
	}))
	if err != nil {
		return nil, classify(err)
	}

	out := &ReviewOutcome{Result: resp.Msg}
	snap, err := c.refetch(ctx, restaurantID)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrRefetch, err)
	}
	out.Snapshot = snap
	return out, nil
}

// enter claims the submit gate for restaurantID.
func (c *Controller) enter(restaurantID string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[restaurantID] {
		return nil, ErrSubmitInFlight
	}
	c.inFlight[restaurantID] = true
	return func() {
		c.mu.Lock()
		delete(c.inFlight, restaurantID)
		c.mu.Unlock()
	}, nil
}

func (c *Controller) refetch(ctx context.Context, restaurantID string) (Snapshot, error) {
	c.mu.Lock()
	c.seq[restaurantID]++
	seq := c.seq[restaurantID]
	c.mu.Unlock()

	restResp, err := c.restaurants.GetRestaurant(ctx, connect.NewRequest(&apiv1.GetRestaurantRequest{RestaurantID: restaurantID}))
	if err != nil {
		return Snapshot{}, classify(err)
	}
	listResp, err := c.reviews.ListRestaurantReviews(ctx, connect.NewRequest(&apiv1.ListRestaurantReviewsRequest{RestaurantID: restaurantID}))
	if err != nil {
		return Snapshot{}, classify(err)
	}
	snap := Snapshot{
		RestaurantID: restaurantID,
		Restaurant:   restResp.Msg.Restaurant,
		Reviews:      listResp.Msg.Reviews,
	}

	if c.creds.Token() != "" {
		ratingResp, err := c.ratings.GetMyRating(ctx, connect.NewRequest(&apiv1.GetMyRatingRequest{RestaurantID: restaurantID}))
		if err != nil {
			return Snapshot{}, classify(err)
		}
		snap.MyRating = ratingResp.Msg.Rating

		reviewResp, err := c.reviews.GetMyReview(ctx, connect.NewRequest(&apiv1.GetMyReviewRequest{RestaurantID: restaurantID}))
		if err != nil {
			return Snapshot{}, classify(err)
		}
		snap.MyReview = reviewResp.Msg.Review
	}
	snap.FetchedAt = c.now()

	c.publish(seq, snap)
	return snap, nil
}

func (c *Controller) publish(seq uint64, snap Snapshot) {
	c.mu.Lock()
	if seq <= c.published[snap.RestaurantID] {
		c.mu.Unlock()
		c.logger.Debug("Dropping stale snapshot", "restaurant_id", snap.RestaurantID, "seq", seq)
		return
	}
	c.published[snap.RestaurantID] = seq
	c.latest[snap.RestaurantID] = snap
	observers := make([]func(Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// IsRetryable reports whether err is a transient failure the caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrConflict) || errors.Is(err, ErrSubmitInFlight)
}
