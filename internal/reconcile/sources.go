// ABOUTME: Per-metric-type reconciliation policy: priority, staleness, source.
// ABOUTME: An injected immutable table, never a module-level singleton.
package reconcile

import (
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
)

// DataSourceNative marks a metric whose truth comes from the on-device
// provider; only native-sourced values are written back after a fetch.
const DataSourceNative = "native"

// DataSourceStore marks a metric maintained by the remote store itself.
const DataSourceStore = "store"

// Source is the reconciliation policy for one metric type.
type Source struct {
	Priority   int
	Staleness  time.Duration
	DataSource string
}

// Sources maps every metric type to its policy. Constructed once and passed
// into the Reconciler; treated as immutable.
type Sources map[models.MetricType]Source

// DefaultSources returns the stock policy: every type native-sourced with a
// 5-minute staleness threshold.
func DefaultSources() Sources {
	s := make(Sources, len(models.AllMetricTypes))
	for i, mt := range models.AllMetricTypes {
		s[mt] = Source{
			Priority:   i + 1,
			Staleness:  5 * time.Minute,
			DataSource: DataSourceNative,
		}
	}
	return s
}

// Staleness returns the threshold for a type, falling back to 5 minutes for
// a type missing from the table.
func (s Sources) Staleness(mt models.MetricType) time.Duration {
	if src, ok := s[mt]; ok && src.Staleness > 0 {
		return src.Staleness
	}
	return 5 * time.Minute
}

// IsNative reports whether a type's values are written back after a
// provider fetch.
func (s Sources) IsNative(mt models.MetricType) bool {
	src, ok := s[mt]
	return ok && src.DataSource == DataSourceNative
}

// IsStale reports whether a row updated at updatedAt is stale at now.
// The boundary exactly at the threshold is still fresh.
func (s Sources) IsStale(mt models.MetricType, updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) > s.Staleness(mt)
}
