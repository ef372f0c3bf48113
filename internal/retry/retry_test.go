// ABOUTME: Tests for timeout, cancellation, and backoff primitives.
// ABOUTME: Verifies attempt counts, root-cause preservation, and error kinds.
package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeoutSuccess(t *testing.T) {
	got, err := WithTimeout(context.Background(), time.Second, "fast op", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestWithTimeoutExpires(t *testing.T) {
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, "slow op", func(ctx context.Context) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return 1, nil
		}
	})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsCancelled(err))
	assert.Contains(t, err.Error(), "slow op")
}

func TestWithTimeoutExternalCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, err = WithTimeout(ctx, time.Minute, "cancellable op", func(opCtx context.Context) (int, error) {
			<-opCtx.Done()
			return 0, opCtx.Err()
		})
	}()

	cancel()
	<-done

	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.False(t, IsTimeout(err))
}

func TestWithTimeoutPassesThroughOpError(t *testing.T) {
	opErr := errors.New("boom")
	_, err := WithTimeout(context.Background(), time.Second, "op", func(ctx context.Context) (int, error) {
		return 0, opErr
	})
	assert.ErrorIs(t, err, opErr)
}

func TestWithBackoffAttemptBound(t *testing.T) {
	calls := 0
	opErr := errors.New("always fails")

	pol := Policy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	_, err := WithBackoff(context.Background(), pol, func(ctx context.Context) (int, error) {
		calls++
		return 0, opErr
	})

	// maxRetries=2 means exactly 3 attempts, and the original error surfaces.
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, opErr)
}

func TestWithBackoffFirstSuccess(t *testing.T) {
	calls := 0
	pol := Policy{MaxRetries: 5, BaseDelay: time.Millisecond}
	got, err := WithBackoff(context.Background(), pol, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffNonRetryable(t *testing.T) {
	calls := 0
	authErr := errors.New("forbidden")
	pol := Policy{
		MaxRetries: 5,
		BaseDelay:  time.Millisecond,
		Retryable:  func(err error) bool { return !errors.Is(err, authErr) },
	}
	_, err := WithBackoff(context.Background(), pol, func(ctx context.Context) (int, error) {
		calls++
		return 0, authErr
	})
	assert.ErrorIs(t, err, authErr)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	pol := Policy{MaxRetries: 10, BaseDelay: 50 * time.Millisecond}

	_, err := WithBackoff(ctx, pol, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "no retry after cancellation")
}

func TestPolicyDelay(t *testing.T) {
	pol := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, pol.Delay(1))
	assert.Equal(t, 200*time.Millisecond, pol.Delay(2))
	assert.Equal(t, 400*time.Millisecond, pol.Delay(3))
	assert.Equal(t, 800*time.Millisecond, pol.Delay(4))
	// Capped at MaxDelay
	assert.Equal(t, time.Second, pol.Delay(5))
	assert.Equal(t, time.Second, pol.Delay(10))
}

func TestCancellableDistinguishesFailureModes(t *testing.T) {
	// Internal deadline
	_, err := Cancellable(context.Background(), 5*time.Millisecond, "fetch", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.True(t, IsTimeout(err))

	// External cancel
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Cancellable(ctx, time.Minute, "fetch", func(ctx context.Context) (int, error) {
		return 0, ctx.Err()
	})
	assert.True(t, IsCancelled(err))
}
