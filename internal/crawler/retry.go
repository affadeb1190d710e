package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrSourceUnavailable means the source could not be reached after retries.
// It is fatal for the category being swept.
var ErrSourceUnavailable = errors.New("source unavailable")

// StatusError is a non-200 answer from the source.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source status %d for %s", e.StatusCode, e.URL)
}

// IsRateLimited reports whether err is a 429/503 answer.
func IsRateLimited(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusTooManyRequests || se.StatusCode == http.StatusServiceUnavailable
}

// RetryPolicy bounds the attempts for one source call. Rate-limited failures
// back off exponentially and may use every attempt; any other failure is
// retried OtherRetries times.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	OtherRetries int
}

func DefaultRetryPolicy(maxAttempts int, base time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: base, OtherRetries: 1}
}

// Backoff is BaseDelay * 2^attempt, attempt counted from zero.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op under the policy. The returned error wraps ErrSourceUnavailable
// and the last failure, or is the context error if ctx ended first.
func (p RetryPolicy) Do(ctx context.Context, sleep SleepFunc, onRetry func(attempt int, wait time.Duration, err error), op func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	others := 0
	var last error

	for attempt := 0; attempt < attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		last = err
		if attempt == attempts-1 {
			break
		}

		var wait time.Duration
		if IsRateLimited(err) {
			wait = p.Backoff(attempt)
		} else {
			others++
			if others > p.OtherRetries {
				break
			}
			wait = p.BaseDelay
		}

		if onRetry != nil {
			onRetry(attempt+1, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrSourceUnavailable, last)
}
