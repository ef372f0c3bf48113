// ABOUTME: Tests for point scoring formulas.
// ABOUTME: Covers linear increments, caps, and the heart-rate deviation curve.
package scoring

import (
	"testing"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPointsLinear(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name  string
		mt    models.MetricType
		value float64
		want  int
	}{
		{"steps at goal", models.MetricSteps, 10000, 100},
		{"steps partial", models.MetricSteps, 5550, 55},
		{"steps floor", models.MetricSteps, 199, 1},
		{"steps capped", models.MetricSteps, 50000, 100},
		{"steps zero", models.MetricSteps, 0, 0},
		{"steps negative", models.MetricSteps, -100, 0},
		{"exercise", models.MetricExercise, 22, 22},
		{"exercise capped", models.MetricExercise, 90, 30},
		{"flights", models.MetricFlightsClimbed, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Points(tt.mt, tt.value))
		})
	}
}

func TestPointsHeartRate(t *testing.T) {
	cfg := DefaultConfig()

	// At target: full points
	assert.Equal(t, 30, cfg.Points(models.MetricHeartRate, 70))
	// 15 bpm off target with tolerance 30: half points
	assert.Equal(t, 15, cfg.Points(models.MetricHeartRate, 85))
	assert.Equal(t, 15, cfg.Points(models.MetricHeartRate, 55))
	// At or beyond tolerance: zero, never negative
	assert.Equal(t, 0, cfg.Points(models.MetricHeartRate, 100))
	assert.Equal(t, 0, cfg.Points(models.MetricHeartRate, 180))
}

func TestPointsUnknownType(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0, cfg.Points(models.MetricType("bogus"), 100))
}

func TestGoalReached(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.GoalReached(models.MetricSteps, 10000))
	assert.True(t, cfg.GoalReached(models.MetricSteps, 12000))
	assert.False(t, cfg.GoalReached(models.MetricSteps, 9999))

	assert.True(t, cfg.GoalReached(models.MetricHeartRate, 70))
	assert.True(t, cfg.GoalReached(models.MetricHeartRate, 99))
	assert.False(t, cfg.GoalReached(models.MetricHeartRate, 101))
}

func TestScore(t *testing.T) {
	cfg := DefaultConfig()

	s := cfg.Score("user-1", "2026-08-30", models.MetricSteps, 7500)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, models.MetricSteps, s.MetricType)
	assert.Equal(t, 7500.0, s.Value)
	assert.Equal(t, 75, s.Points)
	assert.Equal(t, 10000.0, s.Goal)
	assert.False(t, s.GoalReached)
}

func TestDailyTotal(t *testing.T) {
	cfg := DefaultConfig()

	steps := 10000.0
	hr := 70.0
	values := map[models.MetricType]*float64{
		models.MetricSteps:     &steps,
		models.MetricHeartRate: &hr,
		models.MetricExercise:  nil,
	}

	assert.Equal(t, 130, cfg.DailyTotal(values))
}
