// ABOUTME: Permission lifecycle manager sequencing cache and provider checks.
// ABOUTME: Owns the check → request → denial flow for one (user, platform).
package permissions

import (
	"context"
	"fmt"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/charmbracelet/log"
)

// Requester is the slice of the provider contract the manager drives:
// the platform-native permission calls.
type Requester interface {
	// CheckPermissions asks the platform for the current permission state.
	CheckPermissions(ctx context.Context) (models.PermissionState, error)
	// RequestPermissions prompts the user and returns the resulting status.
	RequestPermissions(ctx context.Context) (models.PermissionStatus, error)
}

// Error reports denied or undeterminable health-data access. Never retried.
type Error struct {
	Status models.PermissionStatus
	Denied []string
}

func (e *Error) Error() string {
	if len(e.Denied) > 0 {
		return fmt.Sprintf("health permissions %s (denied: %v)", e.Status, e.Denied)
	}
	return fmt.Sprintf("health permissions %s", e.Status)
}

// Manager sequences permission checks for one (user, platform) against the
// TTL cache, falling through to the platform requester on a miss.
type Manager struct {
	store     *Store
	requester Requester
	userID    string
	platform  string
	logger    *log.Logger
	now       func() time.Time
}

// NewManager creates a permission manager bound to a user and platform.
func NewManager(store *Store, requester Requester, userID, platform string, logger *log.Logger) *Manager {
	return &Manager{
		store:     store,
		requester: requester,
		userID:    userID,
		platform:  platform,
		logger:    logger,
		now:       time.Now,
	}
}

// Status returns the current permission state, trusting the cache while its
// TTL holds and re-checking against the platform otherwise. A fresh check
// replaces the full cached tuple, merging previously denied permissions when
// the platform reports none.
func (m *Manager) Status(ctx context.Context) (models.PermissionState, error) {
	if cached, ok := m.store.Get(m.userID, m.platform); ok {
		return cached, nil
	}

	state, err := m.requester.CheckPermissions(ctx)
	if err != nil {
		return models.PermissionState{}, fmt.Errorf("check permissions: %w", err)
	}
	if state.LastChecked.IsZero() {
		state.LastChecked = m.now()
	}
	m.store.Put(m.userID, m.platform, state)
	return state, nil
}

// Request prompts the user for access and caches the outcome. The cached
// DeniedPermissions set from the previous state survives unless the new
// status is granted.
func (m *Manager) Request(ctx context.Context) (models.PermissionStatus, error) {
	prev, hadPrev := m.store.Get(m.userID, m.platform)

	status, err := m.requester.RequestPermissions(ctx)
	if err != nil {
		return models.PermissionNotDetermined, fmt.Errorf("request permissions: %w", err)
	}

	state := models.PermissionState{Status: status, LastChecked: m.now()}
	if status != models.PermissionGranted && hadPrev {
		state.DeniedPermissions = prev.DeniedPermissions
	}
	m.store.Put(m.userID, m.platform, state)
	return status, nil
}

// Ensure verifies access is granted, requesting it once if the current
// status allows. Returns a permission Error when access stays withheld.
func (m *Manager) Ensure(ctx context.Context) error {
	state, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if state.Granted() {
		return nil
	}

	status, err := m.Request(ctx)
	if err != nil {
		return err
	}
	if status != models.PermissionGranted {
		m.HandleDenial()
		return &Error{Status: status, Denied: state.DeniedPermissions}
	}
	return nil
}

// HandleDenial clears the cached state so the next use re-checks.
func (m *Manager) HandleDenial() {
	m.logger.Info("permission denied, clearing cached state",
		"user", m.userID, "platform", m.platform)
	m.store.Clear(m.userID, m.platform)
}
