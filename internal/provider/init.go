// ABOUTME: Bounded-retry, timed, cancellable provider bring-up orchestrator.
// ABOUTME: Tears the provider down on terminal failure or cancellation.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/retry"
	"github.com/charmbracelet/log"
)

// InitState tracks the bring-up state machine.
type InitState int

const (
	InitNotStarted InitState = iota
	InitInitializing
	InitReady
	InitFailed
)

func (s InitState) String() string {
	switch s {
	case InitNotStarted:
		return "not_started"
	case InitInitializing:
		return "initializing"
	case InitReady:
		return "ready"
	case InitFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InitErrorKind distinguishes why bring-up failed after retries.
type InitErrorKind string

const (
	InitKindTimeout InitErrorKind = "timeout"
	InitKindUnknown InitErrorKind = "unknown"
)

// InitError reports terminal bring-up failure. The wrapped error is the last
// initialization error observed, never a cleanup error.
type InitError struct {
	Kind InitErrorKind
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("provider initialization failed (%s): %v", e.Kind, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// ErrNoUser marks bring-up attempted without a target user. A configuration
// error, not a transient one; never retried.
var ErrNoUser = errors.New("provider has no target user id")

// Initializer drives NotStarted → Initializing → Ready|Failed for one
// provider instance.
type Initializer struct {
	AttemptTimeout time.Duration
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Logger         *log.Logger

	mu    sync.RWMutex
	state InitState
}

// NewInitializer returns an initializer with the stock bring-up policy.
func NewInitializer(logger *log.Logger) *Initializer {
	return &Initializer{
		AttemptTimeout: 10 * time.Second,
		MaxRetries:     2,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Logger:         logger,
	}
}

// State returns the current bring-up state.
func (i *Initializer) State() InitState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

func (i *Initializer) setState(s InitState) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// Run brings the provider up, retrying each timed attempt up to MaxRetries
// times. The backoff delay is skipped after a timeout so an already-long
// wait is not doubled. On terminal failure or cancellation the provider is
// cleaned up unconditionally; cleanup errors are logged while the original
// error surfaces.
func (i *Initializer) Run(ctx context.Context, p HealthProvider) error {
	if p.UserID() == "" {
		i.setState(InitFailed)
		return ErrNoUser
	}

	i.setState(InitInitializing)
	pol := retry.Policy{BaseDelay: i.BaseDelay, MaxDelay: i.MaxDelay}

	var lastErr error
	for attempt := 0; attempt <= i.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			i.fail(p, &retry.CancelledError{Label: "provider initialization"})
			return &retry.CancelledError{Label: "provider initialization"}
		}

		_, err := retry.WithTimeout(ctx, i.AttemptTimeout, "provider initialization",
			func(opCtx context.Context) (struct{}, error) {
				return struct{}{}, p.Initialize(opCtx)
			})
		if err == nil {
			i.setState(InitReady)
			return nil
		}
		lastErr = err

		if retry.IsCancelled(err) {
			i.fail(p, err)
			return err
		}

		i.Logger.Warn("provider initialization attempt failed",
			"platform", p.Platform(), "attempt", attempt+1, "err", err)

		if attempt == i.MaxRetries {
			break
		}

		// A timed-out attempt already waited AttemptTimeout; retry without
		// stacking a backoff delay on top.
		if !retry.IsTimeout(err) {
			if serr := waitDelay(ctx, pol.Delay(attempt+1)); serr != nil {
				i.fail(p, &retry.CancelledError{Label: "provider initialization"})
				return &retry.CancelledError{Label: "provider initialization"}
			}
		}
	}

	kind := InitKindUnknown
	if retry.IsTimeout(lastErr) {
		kind = InitKindTimeout
	}
	initErr := &InitError{Kind: kind, Err: lastErr}
	i.fail(p, initErr)
	return initErr
}

// fail marks the state machine failed and tears the provider down. Cleanup
// uses a fresh context so it still runs after cancellation.
func (i *Initializer) fail(p HealthProvider, cause error) {
	i.setState(InitFailed)

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Cleanup(cleanupCtx); err != nil {
		i.Logger.Error("provider cleanup after failed initialization",
			"platform", p.Platform(), "cause", cause, "err", err)
	}
}

func waitDelay(ctx context.Context, d time.Duration) error {
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
