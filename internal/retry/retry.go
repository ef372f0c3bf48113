// ABOUTME: Timeout, cancellation, and backoff primitives for boundary calls.
// ABOUTME: Every network/storage call in the engine goes through these wrappers.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutError reports that an operation exceeded its deadline. Distinct from
// CancelledError so callers can tell an internal timeout from an external
// cancellation.
type TimeoutError struct {
	Label string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Label, e.After)
}

// CancelledError reports that the caller's context was cancelled while the
// operation was in flight.
type CancelledError struct {
	Label string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s cancelled", e.Label)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsCancelled reports whether err is (or wraps) a CancelledError.
func IsCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}

// WithTimeout races op against a deadline. The child context handed to op is
// always cancelled on return, so no timer outlives the call. A parent
// cancellation wins over the internal deadline.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, label string, op func(context.Context) (T, error)) (T, error) {
	var zero T

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := op(opCtx)
	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		return zero, &CancelledError{Label: label}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return zero, &TimeoutError{Label: label, After: timeout}
	}
	return zero, err
}

// Policy configures WithBackoff.
type Policy struct {
	MaxRetries int           // retries after the first attempt; total attempts = MaxRetries+1
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // cap on the exponential delay
	// Retryable decides whether an error is worth another attempt.
	// nil retries everything except context cancellation.
	Retryable func(error) bool
}

// DefaultPolicy is the stock backoff for transient storage and network errors.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
}

// Delay returns the wait before retry attempt i (1-based): min(base·2^(i−1), max).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// WithBackoff attempts op up to MaxRetries+1 times with exponential delays
// between attempts. On exhaustion it returns the last observed error, not a
// wrapper, so the root cause survives. Cancellation of ctx stops retrying
// immediately; an error the policy marks non-retryable is returned as-is.
func WithBackoff[T any](ctx context.Context, pol Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, pol.Delay(attempt)); err != nil {
				return zero, lastErr
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || IsCancelled(err) {
			return zero, lastErr
		}
		if pol.Retryable != nil && !pol.Retryable(err) {
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// Cancellable runs op with an internal deadline composed with the caller's
// context. The two failure modes stay distinguishable: an external
// cancellation yields CancelledError, the internal deadline TimeoutError.
func Cancellable[T any](ctx context.Context, timeout time.Duration, label string, op func(context.Context) (T, error)) (T, error) {
	return WithTimeout(ctx, timeout, label, op)
}

// sleep waits d or until ctx is done, whichever comes first. The timer is
// stopped on early exit.
func sleep(ctx context.Context, d time.Duration) error {
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
