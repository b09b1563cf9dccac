// Package metrics exposes Prometheus metrics for definition lookups.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// resolutionsTotal counts definition lookups by outcome.
	// Labels: outcome (resolved, no_node, no_call, no_callee, mismatch, unavailable)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laravel_ls",
		Name:      "resolutions_total",
		Help:      "Definition lookups by outcome",
	}, []string{"outcome"})

	// resolveDurationSeconds measures parse plus resolution time.
	resolveDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "laravel_ls",
		Name:      "resolve_duration_seconds",
		Help:      "Time spent parsing and resolving a definition request",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
)

// OutcomeUnavailable labels lookups that never reached the resolver, e.g.
// because the document could not be loaded.
const OutcomeUnavailable = "unavailable"

// RecordResolution records one lookup.
func RecordResolution(outcome string, elapsed time.Duration) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeUnavailable {
		resolveDurationSeconds.Observe(elapsed.Seconds())
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewServer returns an HTTP server exposing /metrics on addr.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
