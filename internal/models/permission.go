// ABOUTME: PermissionState model for the cached health-data permission tuple.
// ABOUTME: Keyed by (user, platform); expires 24h after lastChecked.
package models

import "time"

// PermissionStatus is the tri-state result of a permission check.
type PermissionStatus string

const (
	PermissionGranted       PermissionStatus = "granted"
	PermissionDenied        PermissionStatus = "denied"
	PermissionNotDetermined PermissionStatus = "not_determined"
)

// PermissionTTL is how long a cached permission state is trusted. An older
// entry is treated as absent, forcing a re-check against the provider.
const PermissionTTL = 24 * time.Hour

// PermissionState is the full cached permission tuple. Every write replaces
// the tuple atomically; callers must read-merge before partial updates so an
// unrelated field is not silently dropped.
type PermissionState struct {
	Status            PermissionStatus `json:"status"`
	LastChecked       time.Time        `json:"last_checked"`
	DeniedPermissions []string         `json:"denied_permissions,omitempty"`
}

// Expired reports whether the state is older than the TTL at the given time.
func (p PermissionState) Expired(now time.Time) bool {
	return now.Sub(p.LastChecked) > PermissionTTL
}

// Granted reports whether the cached status is granted.
func (p PermissionState) Granted() bool {
	return p.Status == PermissionGranted
}
