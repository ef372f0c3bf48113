// ABOUTME: Tests for the provider bring-up orchestrator.
// ABOUTME: Uses a scriptable fake provider to exercise retries and teardown.
package provider

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/permissions"
	"github.com/SG-Repo2/mylera-sub000/internal/retry"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider scripts initialization outcomes per attempt.
type fakeProvider struct {
	Base
	userID       string
	initErrs     []error // one per attempt; nil = success
	initCalls    int
	cleanupCalls int
	initDelay    time.Duration
	cleanupErr   error
}

func (f *fakeProvider) Initialize(ctx context.Context) error {
	call := f.initCalls
	f.initCalls++
	if f.initDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.initDelay):
		}
	}
	if call < len(f.initErrs) {
		return f.initErrs[call]
	}
	return nil
}

func (f *fakeProvider) Cleanup(ctx context.Context) error {
	f.cleanupCalls++
	return f.cleanupErr
}

func (f *fakeProvider) UserID() string    { return f.userID }
func (f *fakeProvider) Platform() string  { return "fake" }
func (f *fakeProvider) HandlePermissionDenial() {}

func (f *fakeProvider) InitializePermissions(ctx context.Context, userID string) error { return nil }
func (f *fakeProvider) RequestPermissions(ctx context.Context) (models.PermissionStatus, error) {
	return models.PermissionGranted, nil
}
func (f *fakeProvider) CheckPermissions(ctx context.Context) (models.PermissionState, error) {
	return models.PermissionState{Status: models.PermissionGranted, LastChecked: time.Now()}, nil
}
func (f *fakeProvider) PermissionManager() *permissions.Manager { return nil }
func (f *fakeProvider) FetchRaw(ctx context.Context, start, end time.Time, types []models.MetricType) (*models.RawHealthData, error) {
	return &models.RawHealthData{}, nil
}
func (f *fakeProvider) Normalize(raw *models.RawHealthData, mt models.MetricType) []models.NormalizedMetric {
	return nil
}
func (f *fakeProvider) Metrics(ctx context.Context) (*models.HealthMetrics, error) {
	return models.NewHealthMetrics(f.userID, "2026-08-30"), nil
}
func (f *fakeProvider) Available(ctx context.Context) bool { return true }

func testInitializer() *Initializer {
	init := NewInitializer(log.New(io.Discard))
	init.AttemptTimeout = 50 * time.Millisecond
	init.BaseDelay = time.Millisecond
	init.MaxDelay = 5 * time.Millisecond
	return init
}

func TestInitializerReady(t *testing.T) {
	init := testInitializer()
	p := &fakeProvider{userID: "user-1"}

	err := init.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, InitReady, init.State())
	assert.Equal(t, 1, p.initCalls)
	assert.Equal(t, 0, p.cleanupCalls)
}

func TestInitializerNoUserFailsImmediately(t *testing.T) {
	init := testInitializer()
	p := &fakeProvider{} // no user id configured

	err := init.Run(context.Background(), p)
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Equal(t, InitFailed, init.State())
	assert.Equal(t, 0, p.initCalls, "configuration errors are not retried")
}

func TestInitializerRetriesThenSucceeds(t *testing.T) {
	init := testInitializer()
	p := &fakeProvider{
		userID:   "user-1",
		initErrs: []error{errors.New("transient"), errors.New("transient")},
	}

	err := init.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 3, p.initCalls)
	assert.Equal(t, InitReady, init.State())
}

func TestInitializerTerminalFailureCleansUp(t *testing.T) {
	init := testInitializer()
	boom := errors.New("bring-up broken")
	p := &fakeProvider{
		userID:   "user-1",
		initErrs: []error{boom, boom, boom},
	}

	err := init.Run(context.Background(), p)
	require.Error(t, err)

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitKindUnknown, initErr.Kind)
	assert.ErrorIs(t, err, boom, "root cause survives")

	assert.Equal(t, InitFailed, init.State())
	assert.Equal(t, 3, p.initCalls, "maxRetries=2 means 3 attempts")
	assert.Equal(t, 1, p.cleanupCalls)
}

func TestInitializerTimeoutKind(t *testing.T) {
	init := testInitializer()
	init.AttemptTimeout = 5 * time.Millisecond
	p := &fakeProvider{
		userID:    "user-1",
		initDelay: 200 * time.Millisecond,
		initErrs:  []error{errors.New("x"), errors.New("x"), errors.New("x")},
	}

	err := init.Run(context.Background(), p)
	require.Error(t, err)

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, InitKindTimeout, initErr.Kind)
	assert.Equal(t, 1, p.cleanupCalls)
}

func TestInitializerCleanupErrorSwallowed(t *testing.T) {
	init := testInitializer()
	boom := errors.New("bring-up broken")
	p := &fakeProvider{
		userID:     "user-1",
		initErrs:   []error{boom, boom, boom},
		cleanupErr: errors.New("cleanup also broken"),
	}

	err := init.Run(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom, "initialization error surfaces, not the cleanup error")
	assert.NotContains(t, err.Error(), "cleanup also broken")
}

func TestInitializerCancellation(t *testing.T) {
	init := testInitializer()
	init.AttemptTimeout = time.Minute
	ctx, cancel := context.WithCancel(context.Background())

	p := &fakeProvider{
		userID:    "user-1",
		initDelay: time.Hour,
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := init.Run(ctx, p)
	require.Error(t, err)
	assert.True(t, retry.IsCancelled(err))
	assert.Equal(t, InitFailed, init.State())
	assert.Equal(t, 1, p.cleanupCalls, "cancellation also triggers cleanup")
}
