// ABOUTME: MetricType enum and the HealthMetrics daily aggregate record.
// ABOUTME: Defines the 7 tracked metric types and value validation rules.
package models

import (
	"fmt"
	"math"
	"time"
)

// MetricType identifies one of the tracked health metrics.
type MetricType string

const (
	MetricSteps          MetricType = "steps"
	MetricDistance       MetricType = "distance"
	MetricCalories       MetricType = "calories"
	MetricHeartRate      MetricType = "heart_rate"
	MetricExercise       MetricType = "exercise"
	MetricBasalCalories  MetricType = "basal_calories"
	MetricFlightsClimbed MetricType = "flights_climbed"
)

// AllMetricTypes lists every valid metric type. The set is closed; all
// reconciliation, scoring, and storage is keyed by it.
var AllMetricTypes = []MetricType{
	MetricSteps, MetricDistance, MetricCalories, MetricHeartRate,
	MetricExercise, MetricBasalCalories, MetricFlightsClimbed,
}

// MetricUnits maps metric types to their display units.
var MetricUnits = map[MetricType]string{
	MetricSteps:          "steps",
	MetricDistance:       "km",
	MetricCalories:       "kcal",
	MetricHeartRate:      "bpm",
	MetricExercise:       "min",
	MetricBasalCalories:  "kcal",
	MetricFlightsClimbed: "flights",
}

// IsValidMetricType checks if a string is a valid metric type.
func IsValidMetricType(s string) bool {
	for _, mt := range AllMetricTypes {
		if string(mt) == s {
			return true
		}
	}
	return false
}

// HealthMetrics is the canonical per-user, per-day aggregate. A nil value
// means the metric is unknown for that day, never implicitly zero.
type HealthMetrics struct {
	UserID      string
	Date        string // YYYY-MM-DD
	Values      map[MetricType]*float64
	DailyScore  int
	WeeklyScore int
	StreakDays  int
	LastUpdated time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewHealthMetrics creates an empty aggregate for the given user and day.
func NewHealthMetrics(userID, date string) *HealthMetrics {
	now := time.Now()
	return &HealthMetrics{
		UserID:      userID,
		Date:        date,
		Values:      make(map[MetricType]*float64, len(AllMetricTypes)),
		LastUpdated: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Value returns the recorded value for a metric type, or nil when unknown.
func (h *HealthMetrics) Value(mt MetricType) *float64 {
	if h.Values == nil {
		return nil
	}
	return h.Values[mt]
}

// SetValue records a value for a metric type.
func (h *HealthMetrics) SetValue(mt MetricType, v float64) {
	if h.Values == nil {
		h.Values = make(map[MetricType]*float64, len(AllMetricTypes))
	}
	val := v
	h.Values[mt] = &val
}

// ValidationError reports a metric value outside its sane range or malformed.
type ValidationError struct {
	Metric MetricType
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Metric == "" {
		return "invalid metrics: " + e.Reason
	}
	return fmt.Sprintf("invalid %s value %v: %s", e.Metric, e.Value, e.Reason)
}

// metricRanges bounds each type to a sane daily range. Values outside the
// range degrade that metric to unknown rather than failing the sync.
var metricRanges = map[MetricType][2]float64{
	MetricSteps:          {0, 200000},
	MetricDistance:       {0, 500},
	MetricCalories:       {0, 20000},
	MetricHeartRate:      {20, 250},
	MetricExercise:       {0, 1440},
	MetricBasalCalories:  {0, 10000},
	MetricFlightsClimbed: {0, 1000},
}

// ValidateValue checks a fetched value against the sane range for its type.
func ValidateValue(mt MetricType, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Metric: mt, Value: v, Reason: "not a finite number"}
	}
	r, ok := metricRanges[mt]
	if !ok {
		return &ValidationError{Metric: mt, Value: v, Reason: "unknown metric type"}
	}
	if v < r[0] || v > r[1] {
		return &ValidationError{Metric: mt, Value: v, Reason: fmt.Sprintf("outside range [%v, %v]", r[0], r[1])}
	}
	return nil
}

// IsWritableValue reports whether a provider value may be written back to the
// store: finite and non-negative. NaN and negative values are skipped, never
// written as zero.
func IsWritableValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
