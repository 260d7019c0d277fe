package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Retrying retries transient failures with exponential backoff and ±20%
// jitter. Invalid output is retried once; truncation and client errors
// are returned immediately.
type Retrying struct {
	inner  Provider
	cfg    RetryConfig
	jitter func() float64
	sleep  func(context.Context, time.Duration) error
}

// WithRetry wraps p.
func WithRetry(p Provider, cfg RetryConfig) *Retrying {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Retrying{inner: p, cfg: cfg, jitter: rand.Float64, sleep: sleepCtx}
}

func (r *Retrying) Name() string  { return r.inner.Name() }
func (r *Retrying) Model() string { return r.inner.Model() }

func (r *Retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalidSeen := false
	for attempt := range r.cfg.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err, &invalidSeen) || attempt == r.cfg.MaxAttempts-1 {
			break
		}
		if err := r.sleep(ctx, r.backoff(attempt, err)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func retryable(err error, invalidSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrTruncated) {
		return false
	}
	if errors.Is(err, ErrInvalidResponse) {
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Permanent() {
		return false
	}
	return true
}

func (r *Retrying) backoff(attempt int, err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	wait := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	wait = math.Min(wait, float64(r.cfg.MaxWait))
	wait += wait * 0.2 * (2*r.jitter() - 1)
	return time.Duration(math.Max(wait, 0))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
