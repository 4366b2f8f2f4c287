package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by the canvas service.
const (
	OutcomeInvalid   = "invalid"
	OutcomeAccepted  = "accepted"
	OutcomeFallback  = "deadline_fallback"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Metrics owns the Prometheus collectors for the service.
type Metrics struct {
	Registry *prometheus.Registry

	requests           *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	errors             *prometheus.CounterVec
	outboundAttempts   *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	backgroundDuration *prometheus.HistogramVec
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvas_http_requests_total",
			Help: "Inbound HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "canvas_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvas_http_errors_total",
			Help: "Inbound requests that ended in an error envelope.",
		}, []string{"path", "method", "code"}),
		outboundAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvas_outbound_attempts_total",
			Help: "Outbound API attempts by upstream and result.",
		}, []string{"upstream", "result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvas_submissions_total",
			Help: "Ticket submissions by outcome.",
		}, []string{"outcome"}),
		backgroundDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "canvas_background_duration_seconds",
			Help:    "Duration of background ticket creation.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(
		m.requests, m.requestDuration, m.errors,
		m.outboundAttempts, m.submissions, m.backgroundDuration,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordAttempt counts one outbound call attempt.
func (m *Metrics) RecordAttempt(upstream, result string) {
	if m == nil {
		return
	}
	m.outboundAttempts.WithLabelValues(upstream, result).Inc()
}

// RecordSubmission counts a submission outcome.
func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// RecordBackground observes a finished background task.
func (m *Metrics) RecordBackground(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.backgroundDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
