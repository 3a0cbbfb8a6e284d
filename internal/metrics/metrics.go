// Package metrics provides Prometheus instrumentation for Paddock.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CyclesTotal counts scheduler cycles, partitioned by outcome.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddock_cycles_total",
		Help: "Total reconciliation cycles run",
	}, []string{"outcome"})

	// OddsMatchedTotal counts runners that received fresh odds.
	OddsMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paddock_odds_matched_total",
		Help: "Runners matched to exchange odds",
	})

	// NonRunnersTotal counts runners newly marked as non-runners.
	NonRunnersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paddock_non_runners_total",
		Help: "Runners newly marked as non-runners",
	})

	// ResultsRecordedTotal counts race results written.
	ResultsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paddock_results_recorded_total",
		Help: "Race results recorded",
	})

	// PassErrorsTotal counts reconciliation pass failures by pass name.
	PassErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddock_pass_errors_total",
		Help: "Reconciliation pass failures",
	}, []string{"pass"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddock_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paddock_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
