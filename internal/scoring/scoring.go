// ABOUTME: Configuration-driven point scoring for daily metric values.
// ABOUTME: Linear increments per type, deviation-from-target curve for heart rate.
package scoring

import (
	"math"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
)

// Rule is the scoring policy for one metric type.
type Rule struct {
	Goal      float64 // daily goal in the metric's unit
	Increment float64 // value per point for linear metrics
	MaxPoints int
	Tolerance float64 // heart_rate only: bpm deviation at which points reach zero
}

// Config maps every metric type to its scoring rule. The map is treated as
// immutable after construction; components receive it by injection.
type Config map[models.MetricType]Rule

// DefaultConfig returns the stock scoring policy.
func DefaultConfig() Config {
	return Config{
		models.MetricSteps:          {Goal: 10000, Increment: 100, MaxPoints: 100},
		models.MetricDistance:       {Goal: 8, Increment: 0.1, MaxPoints: 80},
		models.MetricCalories:       {Goal: 600, Increment: 10, MaxPoints: 60},
		models.MetricHeartRate:      {Goal: 70, MaxPoints: 30, Tolerance: 30},
		models.MetricExercise:       {Goal: 30, Increment: 1, MaxPoints: 30},
		models.MetricBasalCalories:  {Goal: 1600, Increment: 50, MaxPoints: 32},
		models.MetricFlightsClimbed: {Goal: 10, Increment: 1, MaxPoints: 10},
	}
}

// Points computes the points earned for a value of the given type, bounded
// to [0, MaxPoints]. Heart rate scores by closeness to the target; all other
// types score linearly by increment.
func (c Config) Points(mt models.MetricType, value float64) int {
	rule, ok := c[mt]
	if !ok || math.IsNaN(value) {
		return 0
	}

	if mt == models.MetricHeartRate {
		if rule.Tolerance <= 0 {
			return 0
		}
		p := float64(rule.MaxPoints) * (1 - math.Abs(value-rule.Goal)/rule.Tolerance)
		if p < 0 {
			return 0
		}
		return int(p)
	}

	if rule.Increment <= 0 || value <= 0 {
		return 0
	}
	p := int(math.Floor(value / rule.Increment))
	if p > rule.MaxPoints {
		return rule.MaxPoints
	}
	return p
}

// GoalReached reports whether a value meets the daily goal for its type.
// Heart rate reaches its goal when the value is within tolerance.
func (c Config) GoalReached(mt models.MetricType, value float64) bool {
	rule, ok := c[mt]
	if !ok {
		return false
	}
	if mt == models.MetricHeartRate {
		return math.Abs(value-rule.Goal) <= rule.Tolerance
	}
	return value >= rule.Goal
}

// Goal returns the configured daily goal for a metric type.
func (c Config) Goal(mt models.MetricType) float64 {
	return c[mt].Goal
}

// Score builds a complete DailyMetricScore row for one value.
func (c Config) Score(userID, date string, mt models.MetricType, value float64) *models.DailyMetricScore {
	s := models.NewDailyMetricScore(userID, date, mt, value)
	s.Points = c.Points(mt, value)
	s.Goal = c.Goal(mt)
	s.GoalReached = c.GoalReached(mt, value)
	return s
}

// DailyTotal sums the points earned across a day's metric values. Nil values
// contribute nothing.
func (c Config) DailyTotal(values map[models.MetricType]*float64) int {
	total := 0
	for mt, v := range values {
		if v == nil {
			continue
		}
		total += c.Points(mt, *v)
	}
	return total
}
