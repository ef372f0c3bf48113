// ABOUTME: Remote metrics store boundary: interfaces and error taxonomy.
// ABOUTME: The engine only ever talks to this contract, never a concrete client.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
)

// ErrAuth marks a session/credential failure. Never retried; it propagates
// immediately so the caller can force re-authentication.
var ErrAuth = errors.New("storage authorization failed")

// ErrForbidden is the row-level authorization rejection: the caller is not
// the row owner. It matches ErrAuth under errors.Is.
var ErrForbidden = fmt.Errorf("not row owner: %w", ErrAuth)

// ErrNotFound marks an absent row.
var ErrNotFound = errors.New("not found")

// StorageError wraps a store failure that is neither auth nor not-found.
// Transient by assumption; retried per component policy.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an authorization failure (session
// invalid or row ownership rejected).
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// Querier is the read/write surface shared by the store and its transactions.
type Querier interface {
	// DailyScores returns the score rows for one user and day, one per
	// metric type at most.
	DailyScores(ctx context.Context, userID, date string) ([]*models.DailyMetricScore, error)
	// UpsertScore inserts or replaces a score row keyed by
	// (user_id, date, metric_type).
	UpsertScore(ctx context.Context, score *models.DailyMetricScore) error
	// UpsertMetrics inserts or replaces the daily aggregate row keyed by
	// (user_id, date).
	UpsertMetrics(ctx context.Context, hm *models.HealthMetrics) error
	// Metrics returns the aggregate row, or ErrNotFound.
	Metrics(ctx context.Context, userID, date string) (*models.HealthMetrics, error)
}

// Tx is a transaction over the store. Rollback after Commit is a no-op.
type Tx interface {
	Querier
	Commit() error
	Rollback() error
}

// Store is the injected remote metrics store client.
type Store interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	Close() error
}
