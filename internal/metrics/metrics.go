package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Auth metrics
	AuthRejectionsTotal prometheus.CounterVec

	// Feed metrics
	FeedEnrichmentDuration prometheus.HistogramVec
	FeedThreadsEnriched    prometheus.CounterVec

	// Publisher job metrics
	PublisherRunsTotal       prometheus.CounterVec
	PublisherThreadsPromoted prometheus.Counter

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			AuthRejectionsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "auth_rejections_total",
					Help: "Requests rejected by the auth filter, by reason",
				},
				[]string{"reason"},
			),
			FeedEnrichmentDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_enrichment_duration_seconds",
					Help:    "Time spent enriching thread batches",
					Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
				},
				[]string{"kind"},
			),
			FeedThreadsEnriched: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_threads_enriched_total",
					Help: "Threads personalized by the enrichment engine",
				},
				[]string{"kind"},
			),
			PublisherRunsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "publisher_runs_total",
					Help: "Scheduled publication job runs, by outcome",
				},
				[]string{"outcome"},
			),
			PublisherThreadsPromoted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "publisher_threads_promoted_total",
					Help: "Threads moved from scheduled to published",
				},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
