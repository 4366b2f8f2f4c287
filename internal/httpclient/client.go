package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/ticket-canvas/internal/observability"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

// Request describes one logical outbound call. Result, when set, receives the decoded JSON body.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any
	Result  any
}

// Response is the successful attempt's status and raw body.
type Response struct {
	StatusCode int
	Body       []byte
	Attempts   int
}

// StatusError is a non-2xx answer from the upstream.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	Name        string
	BaseURL     string
	BasicUser   string
	BasicPass   string
	BearerToken string
	Policy      Policy
	RateLimit   float64
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// Client executes requests against one upstream with bounded retries.
type Client struct {
	name    string
	rest    *resty.Client
	policy  Policy
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *observability.Metrics

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// New builds a Client. Retries are driven here; resty runs single attempts.
func New(opts Options) *Client {
	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if opts.BasicUser != "" {
		rc.SetBasicAuth(opts.BasicUser, opts.BasicPass)
	}
	if opts.BearerToken != "" {
		rc.SetAuthToken(opts.BearerToken)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		name:    opts.Name,
		rest:    rc,
		policy:  opts.Policy,
		limiter: limiter,
		logger:  logger.With(zap.String("upstream", opts.Name)),
		metrics: opts.Metrics,
		sleep:   sleepContext,
		jitter:  rand.Float64,
	}
}

// Name identifies the upstream in logs and errors.
func (c *Client) Name() string {
	return c.name
}

// Do runs req until it succeeds or the policy is exhausted. The final error is an
// UPSTREAM_UNAVAILABLE DomainError wrapping the last failure.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	attempts := c.policy.Attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := c.policy.Backoff(attempt-2, c.jitter())
			c.logger.Warn("retrying request",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				lastErr = err
				break
			}
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			c.metrics.RecordAttempt(c.name, "ok")
			resp.Attempts = attempt
			if req.Result != nil && len(resp.Body) > 0 {
				if err := json.Unmarshal(resp.Body, req.Result); err != nil {
					return nil, fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
				}
			}
			return resp, nil
		}
		c.metrics.RecordAttempt(c.name, "error")
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, apperrors.NewUpstreamUnavailable(c.name, fmt.Errorf("%s %s: %w", req.Method, req.Path, lastErr))
}

func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	attemptCtx := ctx
	if c.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.policy.AttemptTimeout)
		defer cancel()
	}

	r := c.rest.R().SetContext(attemptCtx)
	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 512)}
	}
	c.logger.Debug("request ok",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode()))
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
