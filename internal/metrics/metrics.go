// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dineout"

// Metrics groups the collectors used by registries and interceptors.
type Metrics struct {
	RatingSubmissions *prometheus.CounterVec
	ReviewSubmissions *prometheus.CounterVec
	Conflicts         *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RatingSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_submissions_total",
			Help:      "Rating submissions by outcome (created, replaced, rejected, failed).",
		}, []string{"outcome"}),
		ReviewSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_submissions_total",
			Help:      "Review submissions by outcome (created, replaced, rejected, failed).",
		}, []string{"outcome"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_conflicts_total",
			Help:      "Concurrent-write conflicts by kind (in_flight, version, retry_exhausted).",
		}, []string{"kind"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and Connect code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
	reg.MustRegister(m.RatingSubmissions, m.ReviewSubmissions, m.Conflicts, m.RPCDuration)
	return m
}

// NewUnregistered returns collectors that are not exported anywhere.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveRating(outcome string) {
	m.RatingSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveReview(outcome string) {
	m.ReviewSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveConflict(kind string) {
	m.Conflicts.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	m.RPCDuration.WithLabelValues(procedure, code).Observe(elapsed.Seconds())
}
