// ABOUTME: DailyMetricScore row model, the unit of staleness tracking.
// ABOUTME: One row per (user, date, metric_type); batched writes carry these.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyMetricScore is one scored metric for one user on one day. It is the
// unit of staleness tracking and of batched writes to the remote store.
type DailyMetricScore struct {
	ID          uuid.UUID
	UserID      string
	Date        string // YYYY-MM-DD
	MetricType  MetricType
	Value       float64
	Points      int
	Goal        float64
	GoalReached bool
	UpdatedAt   time.Time
}

// NewDailyMetricScore creates a score row with a generated ID.
func NewDailyMetricScore(userID, date string, mt MetricType, value float64) *DailyMetricScore {
	return &DailyMetricScore{
		ID:         uuid.New(),
		UserID:     userID,
		Date:       date,
		MetricType: mt,
		Value:      value,
		UpdatedAt:  time.Now(),
	}
}

