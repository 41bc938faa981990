package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// CheckCount counts similarity checks by mode and outcome
	CheckCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_checks_total",
			Help: "Total number of similarity checks",
		},
		[]string{"mode", "outcome"},
	)

	// CheckDuration measures similarity check duration
	CheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "similarity_check_duration_seconds",
			Help:    "Similarity check duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		},
		[]string{"mode"},
	)

	// CorpusSize observes how many documents each check compared against
	CorpusSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "similarity_corpus_documents",
			Help:    "Number of comparison documents per check",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"mode"},
	)

	// BatchesInFlight tracks running event batch checks
	BatchesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_batches_in_flight",
			Help: "Number of event batch checks currently running",
		},
	)

	// StreamMessages counts consumed stream messages by result
	StreamMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abstract_stream_messages_total",
			Help: "Total number of abstract stream messages handled",
		},
		[]string{"result"},
	)

	initOnce sync.Once
)

// InitPrometheus registers all collectors with the default registry. Safe to
// call more than once.
func InitPrometheus() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCount,
			RequestDuration,
			CheckCount,
			CheckDuration,
			CorpusSize,
			BatchesInFlight,
			StreamMessages,
		)
	})
}

// MetricsHandler returns Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ObserveCheck records one finished check.
func ObserveCheck(mode, outcome string, corpusSize int, started time.Time) {
	CheckCount.WithLabelValues(mode, outcome).Inc()
	CheckDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
	CorpusSize.WithLabelValues(mode).Observe(float64(corpusSize))
}
