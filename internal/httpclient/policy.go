package httpclient

import (
	"time"

	"github.com/spec-kit/ticket-canvas/internal/config"
)

// Policy bounds retries for one outbound API.
type Policy struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Jitter         float64
	AttemptTimeout time.Duration
}

// DefaultPolicy is 4 attempts, 500ms doubling up to 10s, ±20% jitter, 10s per attempt.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     3,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		Jitter:         0.2,
		AttemptTimeout: 10 * time.Second,
	}
}

// PolicyFromConfig overlays cfg on DefaultPolicy. Durations <= 0 keep the default;
// MaxRetries and JitterRatio accept 0.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxRetries >= 0 {
		p.MaxRetries = cfg.MaxRetries
	}
	if cfg.BaseDelayMillis > 0 {
		p.BaseDelay = time.Duration(cfg.BaseDelayMillis) * time.Millisecond
	}
	if cfg.MaxDelayMillis > 0 {
		p.MaxDelay = time.Duration(cfg.MaxDelayMillis) * time.Millisecond
	}
	if cfg.JitterRatio >= 0 && cfg.JitterRatio < 1 {
		p.Jitter = cfg.JitterRatio
	}
	if cfg.AttemptTimeoutMs > 0 {
		p.AttemptTimeout = time.Duration(cfg.AttemptTimeoutMs) * time.Millisecond
	}
	return p
}

// Attempts is the total number of tries including the first.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// BaseBackoff is the un-jittered wait before retry n (0-based): min(base*2^n, max).
func (p Policy) BaseBackoff(retry int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Backoff scales BaseBackoff by a factor in [1-Jitter, 1+Jitter]; r must be in [0,1).
func (p Policy) Backoff(retry int, r float64) time.Duration {
	base := p.BaseBackoff(retry)
	factor := 1 - p.Jitter + 2*p.Jitter*r
	return time.Duration(float64(base) * factor)
}
