// ABOUTME: Maps raw sync errors onto a small set of user-facing categories.
// ABOUTME: Messages are stable strings the UI layers can match and display.
package sync

import (
	"context"
	"errors"

	"github.com/SG-Repo2/mylera-sub000/internal/permissions"
	"github.com/SG-Repo2/mylera-sub000/internal/provider"
	"github.com/SG-Repo2/mylera-sub000/internal/retry"
	"github.com/SG-Repo2/mylera-sub000/internal/store"
)

// Category buckets a sync failure for presentation.
type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryPermission Category = "permission"
	CategoryNetwork    Category = "network"
	CategoryUnknown    Category = "unknown"
)

const (
	msgAuth       = "Your session has expired. Please sign in again."
	msgPermission = "Health data access is not granted. Enable health permissions in your device settings."
	msgNetwork    = "Unable to reach health services. Check your connection and try again."
	msgUnknown    = "Something went wrong during sync. Please try again."
)

// Classify buckets err and returns the stable message for that bucket.
// Auth takes precedence over permission, which takes precedence over
// network; everything unrecognized is unknown.
func Classify(err error) (Category, string) {
	if err == nil {
		return "", ""
	}

	if store.IsAuthError(err) {
		return CategoryAuth, msgAuth
	}

	var permErr *permissions.Error
	if errors.As(err, &permErr) {
		return CategoryPermission, msgPermission
	}

	if retry.IsTimeout(err) || retry.IsCancelled(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryNetwork, msgNetwork
	}

	var initErr *provider.InitError
	if errors.As(err, &initErr) && initErr.Kind == provider.InitKindTimeout {
		return CategoryNetwork, msgNetwork
	}

	var storageErr *store.StorageError
	if errors.As(err, &storageErr) {
		return CategoryNetwork, msgNetwork
	}

	return CategoryUnknown, msgUnknown
}
