package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordSubmission(OutcomeAccepted)
	m.RecordSubmission(OutcomeAccepted)
	m.RecordSubmission(OutcomeFallback)
	m.RecordAttempt("ticketing", "error")
	m.RecordRequest("/canvas/submit", "POST", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues(OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(OutcomeFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboundAttempts.WithLabelValues("ticketing", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/canvas/submit", "POST", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSubmission(OutcomeFailed)
		m.RecordAttempt("conversation", "ok")
		m.RecordBackground(OutcomeFailed, time.Second)
		m.RecordError("/x", "GET", "NOT_FOUND")
	})
}
