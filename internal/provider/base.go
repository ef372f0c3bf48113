// ABOUTME: Shared lifecycle bookkeeping for health provider adapters.
// ABOUTME: Tracks initialized state, last sync time, and the permission manager.
package provider

import (
	"fmt"
	"sync"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/permissions"
	"github.com/charmbracelet/log"
)

// Base carries the state every adapter needs: the initialized flag, the
// target user, last sync time, and permission manager construction. Adapters
// embed it and implement the platform-specific calls on top.
type Base struct {
	platform string
	logger   *log.Logger
	perms    *permissions.Store

	mu          sync.RWMutex
	userID      string
	initialized bool
	lastSync    time.Time
	manager     *permissions.Manager
}

// NewBase creates the shared bookkeeping for an adapter on one platform.
func NewBase(platform string, perms *permissions.Store, logger *log.Logger) Base {
	return Base{platform: platform, perms: perms, logger: logger}
}

// Platform returns the platform name the adapter serves.
func (b *Base) Platform() string { return b.platform }

// Logger returns the adapter's logger.
func (b *Base) Logger() *log.Logger { return b.logger }

// UserID returns the target user id, empty until permissions are initialized.
func (b *Base) UserID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.userID
}

// Initialized reports whether Initialize has completed.
func (b *Base) Initialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// MarkInitialized flips the initialized flag. Idempotent.
func (b *Base) MarkInitialized() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
}

// MarkCleanedUp resets the lifecycle state so the adapter can be brought up
// again.
func (b *Base) MarkCleanedUp() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
}

// LastSyncTime returns the time of the last successful sync, zero if never.
func (b *Base) LastSyncTime() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSync
}

// SetLastSyncTime records a successful sync.
func (b *Base) SetLastSyncTime(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSync = t
}

// BindPermissions sets the target user and builds the permission manager,
// delegating the platform calls to the given requester (normally the adapter
// itself). Idempotent for the same user.
func (b *Base) BindPermissions(userID string, requester permissions.Requester) error {
	if userID == "" {
		return fmt.Errorf("user id required for permission initialization")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.manager != nil && b.userID == userID {
		return nil
	}
	b.userID = userID
	b.manager = permissions.NewManager(b.perms, requester, userID, b.platform, b.logger)
	return nil
}

// PermissionManager returns the bound manager, nil before BindPermissions.
func (b *Base) PermissionManager() *permissions.Manager {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.manager
}

// HandlePermissionDenial clears the cached permission state.
func (b *Base) HandlePermissionDenial() {
	b.mu.RLock()
	mgr := b.manager
	b.mu.RUnlock()
	if mgr != nil {
		mgr.HandleDenial()
	}
}

// Aggregate folds normalized metrics into a daily aggregate: heart rate
// averages across samples, every other type sums. Values failing validation
// degrade that metric to unknown; the aggregate only errors when no metric
// survives at all.
func Aggregate(userID, date string, normalized map[models.MetricType][]models.NormalizedMetric) (*models.HealthMetrics, error) {
	hm := models.NewHealthMetrics(userID, date)
	valid := 0
	attempted := 0

	for mt, ms := range normalized {
		if len(ms) == 0 {
			continue
		}
		attempted++

		var total float64
		for _, m := range ms {
			total += m.Value
		}
		value := total
		if mt == models.MetricHeartRate {
			value = total / float64(len(ms))
		}

		if err := models.ValidateValue(mt, value); err != nil {
			continue
		}
		hm.SetValue(mt, value)
		valid++
	}

	if attempted > 0 && valid == 0 {
		return nil, &models.ValidationError{Reason: "all fetched metrics failed validation"}
	}
	return hm, nil
}
