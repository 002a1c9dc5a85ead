// Package metrics provides Prometheus instrumentation for the console.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bryanwahyu/auditor-console/internal/application/upload"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route pattern and status bucket.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor_console",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern, and status class.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route pattern.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auditor_console",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "auditor_console",
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	// SubmissionsTotal counts settled submissions by outcome.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auditor_console",
			Name:      "submissions_total",
			Help:      "Settled submissions by outcome.",
		},
		[]string{"outcome"},
	)

	SubmissionsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "auditor_console",
		Name:      "submissions_in_flight",
		Help:      "1 while a submission is awaiting the analysis service.",
	})

	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "auditor_console",
		Name:      "analysis_duration_seconds",
		Help:      "Time from submission to settlement.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	// ActiveWebSocketClients tracks connected state-stream clients.
	ActiveWebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "auditor_console",
		Name:      "active_websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		SubmissionsTotal,
		SubmissionsInFlight,
		AnalysisDuration,
		ActiveWebSocketClients,
	)
}

// Handler serves /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Observer feeds controller transitions into the submission metrics.
type Observer struct{}

func (Observer) Transitioned(prev, next upload.State) {
	switch {
	case next.Phase == upload.PhaseLoading:
		SubmissionsInFlight.Set(1)
	case prev.Phase == upload.PhaseLoading && next.Settled():
		SubmissionsInFlight.Set(0)
		SubmissionsTotal.WithLabelValues(string(next.Phase)).Inc()
		if !prev.UpdatedAt.IsZero() && !next.UpdatedAt.IsZero() {
			AnalysisDuration.Observe(next.UpdatedAt.Sub(prev.UpdatedAt).Seconds())
		}
	}
}

// StatusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func StatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
