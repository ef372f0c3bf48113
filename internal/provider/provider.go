// ABOUTME: Health provider capability contract over platform health sources.
// ABOUTME: The seam that keeps reconciliation and orchestration platform-agnostic.
package provider

import (
	"context"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/permissions"
)

// HealthProvider is the capability every platform adapter must satisfy.
// Every platform exposes different native APIs and error shapes; adapters
// implement only the platform-specific calls and inherit the shared
// lifecycle bookkeeping from Base.
type HealthProvider interface {
	// Lifecycle. Both are idempotent; Cleanup after a failed Initialize
	// must not fail.
	Initialize(ctx context.Context) error
	Cleanup(ctx context.Context) error

	// Permission lifecycle.
	InitializePermissions(ctx context.Context, userID string) error
	RequestPermissions(ctx context.Context) (models.PermissionStatus, error)
	CheckPermissions(ctx context.Context) (models.PermissionState, error)
	HandlePermissionDenial()
	PermissionManager() *permissions.Manager

	// Data access. Normalize is a single pass over raw data, not restartable.
	FetchRaw(ctx context.Context, start, end time.Time, types []models.MetricType) (*models.RawHealthData, error)
	Normalize(raw *models.RawHealthData, mt models.MetricType) []models.NormalizedMetric
	Metrics(ctx context.Context) (*models.HealthMetrics, error)

	// Capability probes.
	Available(ctx context.Context) bool
	LastSyncTime() time.Time
	SetLastSyncTime(t time.Time)

	// UserID returns the target user, empty until permissions are initialized.
	UserID() string
	Platform() string
}
