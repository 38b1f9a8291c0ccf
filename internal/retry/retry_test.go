package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	if cfg.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", cfg.MaxAttempts)
	}
	if cfg.BaseBackoff != 500*time.Millisecond {
		t.Errorf("expected BaseBackoff=500ms, got %v", cfg.BaseBackoff)
	}
	if cfg.MaxBackoff != 5*time.Second {
		t.Errorf("expected MaxBackoff=5s, got %v", cfg.MaxBackoff)
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := DefaultConfig()

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_SucceedsAfterControllerRecovers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{
		MaxAttempts: 3,
		BaseBackoff: 10 * time.Millisecond,
		MaxBackoff:  100 * time.Millisecond,
	}

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		if attempts < 3 {
			return &StatusError{Code: http.StatusServiceUnavailable, Path: "core/controller/switches/json"}
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDo_ExhaustsAttemptsAgainstDownController(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{
		MaxAttempts: 3,
		BaseBackoff: 10 * time.Millisecond,
		MaxBackoff:  100 * time.Millisecond,
	}

	attempts := 0
	originalErr := errors.New("connection reset")
	err := Do(ctx, cfg, func() error {
		attempts++
		return originalErr
	})

	if err == nil {
		t.Error("expected error, got nil")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, originalErr) {
		t.Errorf("expected wrapped original error, got %v", err)
	}
}

func TestDo_NonRetryableFailsFast(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{
		MaxAttempts: 3,
		BaseBackoff: 10 * time.Millisecond,
		MaxBackoff:  100 * time.Millisecond,
	}

	attempts := 0
	originalErr := errors.New("invalid input")
	err := Do(ctx, cfg, func() error {
		attempts++
		return originalErr
	})

	if err == nil {
		t.Error("expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt (non-retryable), got %d", attempts)
	}
	if err != originalErr {
		t.Errorf("expected original error, got %v", err)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxAttempts: 5,
		BaseBackoff: 100 * time.Millisecond,
		MaxBackoff:  1 * time.Second,
	}

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("connection reset")
	})

	if err == nil {
		t.Error("expected error, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts before cancellation, got %d", attempts)
	}
}

func TestDo_SensorPrepareTimeout(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cfg := Config{
		MaxAttempts: 5,
		BaseBackoff: 100 * time.Millisecond,
		MaxBackoff:  1 * time.Second,
	}

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		time.Sleep(60 * time.Millisecond) // longer than the sensor's prepare deadline
		return errors.New("connection reset")
	})

	if err == nil {
		t.Error("expected error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestIsRetryable_NetworkErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "timeout error", err: &net.OpError{Op: "read", Err: errors.New("i/o timeout")}, want: true},
		{name: "connection reset", err: errors.New("connection reset by peer"), want: true},
		{name: "EOF", err: errors.New("EOF"), want: true},
		{name: "broken pipe", err: errors.New("broken pipe"), want: true},
		{name: "connection closed", err: errors.New("connection closed"), want: true},
		{name: "client is closing", err: errors.New("client is closing"), want: true},
		{name: "timeout in message", err: errors.New("operation timeout"), want: true},
		{name: "rate limit", err: errors.New("rate limit exceeded"), want: true},
		{name: "too many requests", err: errors.New("too many requests"), want: true},
		{name: "service unavailable", err: errors.New("service unavailable"), want: true},
		{name: "temporary failure", err: errors.New("temporary failure"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.err)
			if got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryable_ControllerStatusCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		code int
		want bool
	}{
		{name: "429 Too Many Requests", code: http.StatusTooManyRequests, want: true},
		{name: "500 Internal Server Error", code: http.StatusInternalServerError, want: true},
		{name: "502 Bad Gateway", code: http.StatusBadGateway, want: true},
		{name: "503 Service Unavailable", code: http.StatusServiceUnavailable, want: true},
		{name: "504 Gateway Timeout", code: http.StatusGatewayTimeout, want: true},
		{name: "400 Bad Request", code: http.StatusBadRequest, want: false},
		{name: "404 Not Found", code: http.StatusNotFound, want: false},
		{name: "401 Unauthorized", code: http.StatusUnauthorized, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := &StatusError{Code: tt.code, Path: "core/switch/all/flow/json"}
			got := IsRetryable(err)
			if got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", err, got, tt.want)
			}
		})
	}
}

func TestStatusError_Error(t *testing.T) {
	t.Parallel()
	err := &StatusError{Code: http.StatusServiceUnavailable, Path: "core/switch/all/flow/json"}
	want := "unexpected status 503 fetching core/switch/all/flow/json"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsRetryable_ContextErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "context deadline exceeded", err: context.DeadlineExceeded, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.err)
			if got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryable_NilError(t *testing.T) {
	t.Parallel()
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) should return false")
	}
}

func TestJitteredBackoff(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		base     time.Duration
		max      time.Duration
		attempt  int
		minRatio float64
		maxRatio float64
	}{
		{name: "first retry (attempt 1)", base: 500 * time.Millisecond, max: 5 * time.Second, attempt: 1, minRatio: 0.5, maxRatio: 1.0},
		{name: "second retry (attempt 2)", base: 500 * time.Millisecond, max: 5 * time.Second, attempt: 2, minRatio: 0.5, maxRatio: 1.0},
		{name: "exceeds max", base: 500 * time.Millisecond, max: 5 * time.Second, attempt: 10, minRatio: 0.5, maxRatio: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			uncapped := tt.base * time.Duration(1<<uint(tt.attempt))
			ceiling := uncapped
			if ceiling > tt.max {
				ceiling = tt.max
			}
			got := jitteredBackoff(tt.base, tt.max, tt.attempt)
			if got > ceiling {
				t.Errorf("jitteredBackoff(%v, %v, %d) = %v, want <= %v", tt.base, tt.max, tt.attempt, got, ceiling)
			}
			if got < time.Duration(float64(ceiling)*tt.minRatio) {
				t.Errorf("jitteredBackoff(%v, %v, %d) = %v, want >= %v*%v", tt.base, tt.max, tt.attempt, got, tt.minRatio, ceiling)
			}
		})
	}
}

func TestDo_BackoffTiming(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{
		MaxAttempts: 3,
		BaseBackoff: 50 * time.Millisecond,
		MaxBackoff:  500 * time.Millisecond,
	}

	attempts := 0
	start := time.Now()
	err := Do(ctx, cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}

	// Attempt 1 is immediate; attempt 2 waits 50ms*2^1 = 100ms and
	// attempt 3 waits 50ms*2^2 = 200ms, each scaled by a jitter factor in
	// [0.5, 1.0), so the total wait is at least 150ms.
	minExpected := 150 * time.Millisecond
	if duration < minExpected {
		t.Errorf("expected duration >= %v, got %v", minExpected, duration)
	}

	maxExpected := 500 * time.Millisecond
	if duration > maxExpected {
		t.Errorf("expected duration <= %v, got %v", maxExpected, duration)
	}
}
