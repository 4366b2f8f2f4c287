package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-canvas/internal/config"
	"github.com/spec-kit/ticket-canvas/internal/observability"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func newTestClient(t *testing.T, url string, policy Policy) (*Client, *sleepRecorder) {
	t.Helper()
	c := New(Options{Name: "ticketing", BaseURL: url, BasicUser: "key", BasicPass: "X", Policy: policy, Metrics: observability.NewMetrics()})
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	c.jitter = func() float64 { return 0.5 }
	return c, rec
}

func TestBackoffIsCappedAndJittered(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 500*time.Millisecond, p.BaseBackoff(0))
	assert.Equal(t, time.Second, p.BaseBackoff(1))
	assert.Equal(t, 2*time.Second, p.BaseBackoff(2))
	assert.Equal(t, 10*time.Second, p.BaseBackoff(5))
	assert.Equal(t, 10*time.Second, p.BaseBackoff(40))

	assert.Equal(t, 400*time.Millisecond, p.Backoff(0, 0))
	assert.Equal(t, 500*time.Millisecond, p.Backoff(0, 0.5))
	assert.InDelta(t, float64(600*time.Millisecond), float64(p.Backoff(0, 0.999999)), float64(time.Millisecond))
}

func TestBackoffGrowthStaysWithinJitterBand(t *testing.T) {
	p := DefaultPolicy()
	for n := 0; n < 12; n++ {
		prev := p.BaseBackoff(n)
		want := prev * 2
		if want > p.MaxDelay {
			want = p.MaxDelay
		}
		for _, r := range []float64{0, 0.25, 0.5, 0.75, 0.9999} {
			got := p.Backoff(n+1, r)
			assert.GreaterOrEqual(t, float64(got), float64(want)*0.8-1, "retry %d r=%v", n+1, r)
			assert.LessOrEqual(t, float64(got), float64(want)*1.2+1, "retry %d r=%v", n+1, r)
		}
		assert.GreaterOrEqual(t, p.BaseBackoff(n+1), prev)
	}
}

func TestDoRetriesUntilExhausted(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"down"}`))
	}))
	defer srv.Close()

	c, rec := newTestClient(t, srv.URL, DefaultPolicy())
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/tickets", Body: map[string]any{"subject": "x"}})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}, rec.delays)
}

func TestDoSucceedsAfterTransientFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "X", pass)
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	c, rec := newTestClient(t, srv.URL, DefaultPolicy())
	var out struct {
		ID int64 `json:"id"`
	}
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/tickets", Query: map[string]string{"per_page": "5"}, Result: &out})

	require.NoError(t, err)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, int64(42), out.ID)
	assert.Len(t, rec.delays, 2)
}

func TestDoAppliesPerAttemptTimeout(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	policy := DefaultPolicy()
	policy.AttemptTimeout = 50 * time.Millisecond
	c, _ := newTestClient(t, srv.URL, policy)

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/mailboxes"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Attempts)
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, DefaultPolicy())
	c.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/mailboxes"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicyFromConfigKeepsDefaults(t *testing.T) {
	p := PolicyFromConfig(config.RetryConfig{MaxRetries: 3, JitterRatio: 0.2})
	assert.Equal(t, DefaultPolicy(), p)

	p = PolicyFromConfig(config.RetryConfig{MaxRetries: 0, BaseDelayMillis: 10, AttemptTimeoutMs: 20})
	assert.Equal(t, 1, p.Attempts())
	assert.Equal(t, 10*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 20*time.Millisecond, p.AttemptTimeout)
	assert.Equal(t, 0.0, p.Jitter)
}
