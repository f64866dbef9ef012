package backend

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"time"
)

// RetryPolicy implements the exponential backoff of spec.md §4.J:
// initial 1s, doubling, capped at 30s, ±25% jitter, default 3 retries.
type RetryPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int
	Sleep      func(time.Duration) // overridable in tests
}

// DefaultRetryPolicy returns the spec's default backoff schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 3,
		Sleep:      time.Sleep,
	}
}

// transientTags is the fixed set of error signals that make an
// operation retryable, per spec.md §4.J / §7.
var transientTags = []string{
	"ECONNRESET", "ETIMEDOUT", "ENOTFOUND", "ECONNREFUSED", "ENETUNREACH", "EAI_AGAIN",
	"Throttling", "ServiceUnavailable",
}

// IsTransient reports whether err matches one of the fixed transient
// error tags: a network error (net.Error), one of the named syscall
// tags appearing in the error text, or an HTTP 429/5xx signal encoded
// as *StatusError.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == 429 || se.Code >= 500
	}
	msg := err.Error()
	for _, tag := range transientTags {
		if strings.Contains(msg, tag) {
			return true
		}
	}
	return false
}

// StatusError wraps an HTTP status code returned by a backend's wire
// protocol so IsTransient can classify it without importing net/http
// into callers that don't otherwise need it.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

// Do runs op, retrying on transient errors per the policy. Sleeps are
// interrupted by ctx cancellation.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}
	delay := p.Initial
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt == p.MaxRetries {
			return lastErr
		}
		jitter := time.Duration(float64(delay) * (0.75 + 0.5*rand.Float64()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			p.Sleep(jitter)
		}
		delay *= 2
		if delay > p.Max {
			delay = p.Max
		}
	}
	return lastErr
}
