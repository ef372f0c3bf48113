// ABOUTME: Tests for the reconciliation policy table and staleness rule.
package reconcile

import (
	"testing"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSourcesCoverAllTypes(t *testing.T) {
	s := DefaultSources()
	assert.Len(t, s, len(models.AllMetricTypes))
	for _, mt := range models.AllMetricTypes {
		assert.True(t, s.IsNative(mt), "%s defaults to native", mt)
		assert.Equal(t, 5*time.Minute, s.Staleness(mt))
	}
}

func TestIsStaleBoundary(t *testing.T) {
	s := DefaultSources()
	now := time.Now()

	assert.False(t, s.IsStale(models.MetricSteps, now.Add(-time.Minute), now))
	// Exactly at the threshold is not stale
	assert.False(t, s.IsStale(models.MetricSteps, now.Add(-5*time.Minute), now))
	assert.True(t, s.IsStale(models.MetricSteps, now.Add(-5*time.Minute-time.Second), now))
}

func TestStalenessPerTypeOverride(t *testing.T) {
	s := DefaultSources()
	s[models.MetricHeartRate] = Source{Staleness: time.Minute, DataSource: DataSourceNative}

	now := time.Now()
	at := now.Add(-2 * time.Minute)
	assert.True(t, s.IsStale(models.MetricHeartRate, at, now))
	assert.False(t, s.IsStale(models.MetricSteps, at, now))
}

func TestIsNativeRespectsDataSource(t *testing.T) {
	s := DefaultSources()
	s[models.MetricExercise] = Source{Staleness: 5 * time.Minute, DataSource: DataSourceStore}

	assert.False(t, s.IsNative(models.MetricExercise))
	assert.True(t, s.IsNative(models.MetricSteps))
	assert.False(t, s.IsNative(models.MetricType("bogus")))
}
