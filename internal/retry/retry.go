// Package retry retries transient failures talking to the Floodlight
// controller: a sensor's Prepare fetches a REST endpoint, and a single
// dropped connection or 503 during a tick shouldn't mark the whole
// tick unhealthy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"
)

// Config bounds one Do call's retry budget.
type Config struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultConfig is the retry policy used for controller fetches: three
// attempts total, backing off from 500ms up to 5s. This comfortably
// fits inside a sensor's 10s prepare timeout even on the worst case of
// two retries.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

// StatusError wraps a non-200 HTTP response from the controller so
// IsRetryable can judge it by status code rather than string-matching
// the error text.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.Path)
}

func (e *StatusError) StatusCode() int { return e.Code }

// Do calls fn, retrying with exponential backoff while the error is
// retryable, up to cfg.MaxAttempts. It returns the last error,
// annotated with the attempt count, once attempts are exhausted.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := jitteredBackoff(cfg.BaseBackoff, cfg.MaxBackoff, attempt-1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// hasStatusCode is implemented by StatusError (and any other error
// that wants to participate in status-code-based retry judgment).
type hasStatusCode interface {
	StatusCode() int
}

// IsRetryable reports whether a controller fetch failure is worth
// retrying: context cancellation never is, a timed-out or reset
// connection always is, and a 429/5xx response from the controller is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
		if strings.Contains(err.Error(), "connection") ||
			strings.Contains(err.Error(), "EOF") ||
			strings.Contains(err.Error(), "broken pipe") ||
			strings.Contains(err.Error(), "connection reset") {
			return true
		}
	}

	var sc hasStatusCode
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range retryableMessagePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// retryableMessagePatterns catches controller/transport failures that
// don't arrive as a typed net.Error or StatusError, e.g. errors
// surfaced through a proxy or a wrapped decode failure.
var retryableMessagePatterns = []string{
	"connection closed",
	"eof",
	"client is closing",
	"broken pipe",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"rate limit",
	"too many requests",
}

// jitteredBackoff computes base * 2^attempt, capped at max, scaled by
// a random factor in [0.5, 1.0) so that several sensors retrying the
// same controller outage don't all wake up on the same tick.
func jitteredBackoff(base, max time.Duration, attempt int) time.Duration {
	backoff := base * time.Duration(1<<uint(attempt))
	if backoff > max {
		backoff = max
	}
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(float64(backoff) * jitter)
}
