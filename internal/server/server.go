// Package server assembles the HTTP surface: Connect services, the REST
// gateway, health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/dineout/internal/api"
	"github.com/mmynk/dineout/internal/auth"
	"github.com/mmynk/dineout/internal/metrics"
	"github.com/mmynk/dineout/internal/middleware"
	"github.com/mmynk/dineout/pkg/apiv1"
)

const shutdownTimeout = 10 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Services    api.Services
	JWT         *auth.JWTManager
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Health      Pinger
	CORSOrigins []string
}

// NewHandler builds the root handler. Connect procedures are served at their
// canonical paths and the REST gateway under /api.
func NewHandler(opts Options) http.Handler {
	interceptors := []connect.Interceptor{
		middleware.OptionalAuth(opts.JWT),
		middleware.LoggingInterceptor(slog.Default()),
	}
	if opts.Metrics != nil {
		interceptors = append(interceptors, middleware.MetricsInterceptor(opts.Metrics))
	}
	handlerOpts := connect.WithInterceptors(interceptors...)

	mux := http.NewServeMux()
	mux.Handle(apiv1.NewRatingServiceHandler(opts.Services.Ratings, handlerOpts))
	mux.Handle(apiv1.NewReviewServiceHandler(opts.Services.Reviews, handlerOpts))
	mux.Handle(apiv1.NewRestaurantServiceHandler(opts.Services.Restaurants, handlerOpts))
	mux.Handle(apiv1.NewAuthServiceHandler(opts.Services.Auth, handlerOpts))

	mux.Handle("/api/", api.NewRouter(api.NewHandler(opts.Services), opts.JWT))
	mux.HandleFunc("GET /healthz", healthz(opts.Health))
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return middleware.RequestLogger(middleware.CORS(opts.CORSOrigins)(mux))
}

func healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				slog.Warn("Health check failed", "error", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	}
}

// Run serves h on addr with HTTP/2 cleartext until ctx is cancelled, then
// drains in-flight requests.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(h, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
