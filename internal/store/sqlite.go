// ABOUTME: SQLite implementation of the metrics store contract.
// ABOUTME: Uses modernc.org/sqlite (pure Go); enforces row-level ownership.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/SG-Repo2/mylera-sub000/internal/models"
	_ "modernc.org/sqlite"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the SQLite-backed metrics store, scoped to one authenticated user.
// Reads and writes for any other user fail with ErrForbidden, mirroring the
// remote store's row-level authorization.
type DB struct {
	db         *sql.DB
	dbPath     string
	authUserID string
}

// Open opens or creates the metrics database at the given path, authorized
// as the given user.
func Open(dbPath, authUserID string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &DB{db: db, dbPath: dbPath, authUserID: authUserID}

	if err := d.configurePragmas(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}
	if err := d.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return d, nil
}

// configurePragmas sets up SQLite for concurrent access.
func (d *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := d.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// authorize rejects access to rows the authenticated user does not own.
func (d *DB) authorize(userID string) error {
	if d.authUserID != "" && userID != d.authUserID {
		return ErrForbidden
	}
	return nil
}

// Begin starts a transaction carrying the same authorization scope.
func (d *DB) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StorageError{Op: "begin", Err: err}
	}
	return &sqliteTx{tx: tx, owner: d}, nil
}

func (d *DB) DailyScores(ctx context.Context, userID, date string) ([]*models.DailyMetricScore, error) {
	return dailyScores(ctx, d.db, d, userID, date)
}

func (d *DB) UpsertScore(ctx context.Context, score *models.DailyMetricScore) error {
	return upsertScore(ctx, d.db, d, score)
}

func (d *DB) UpsertMetrics(ctx context.Context, hm *models.HealthMetrics) error {
	return upsertMetrics(ctx, d.db, d, hm)
}

func (d *DB) Metrics(ctx context.Context, userID, date string) (*models.HealthMetrics, error) {
	return getMetrics(ctx, d.db, d, userID, date)
}

// sqliteTx runs the same queries inside a transaction.
type sqliteTx struct {
	tx    *sql.Tx
	owner *DB
	done  bool
}

func (t *sqliteTx) DailyScores(ctx context.Context, userID, date string) ([]*models.DailyMetricScore, error) {
	return dailyScores(ctx, t.tx, t.owner, userID, date)
}

func (t *sqliteTx) UpsertScore(ctx context.Context, score *models.DailyMetricScore) error {
	return upsertScore(ctx, t.tx, t.owner, score)
}

func (t *sqliteTx) UpsertMetrics(ctx context.Context, hm *models.HealthMetrics) error {
	return upsertMetrics(ctx, t.tx, t.owner, hm)
}

func (t *sqliteTx) Metrics(ctx context.Context, userID, date string) (*models.HealthMetrics, error) {
	return getMetrics(ctx, t.tx, t.owner, userID, date)
}

func (t *sqliteTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Err: err}
	}
	return nil
}

func (t *sqliteTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return &StorageError{Op: "rollback", Err: err}
	}
	return nil
}

// metricColumns maps each metric type to its health_metrics column. The
// enum is closed, so the mapping is total.
var metricColumns = map[models.MetricType]string{
	models.MetricSteps:          "steps",
	models.MetricDistance:       "distance",
	models.MetricCalories:       "calories",
	models.MetricHeartRate:      "heart_rate",
	models.MetricExercise:       "exercise",
	models.MetricBasalCalories:  "basal_calories",
	models.MetricFlightsClimbed: "flights_climbed",
}

func dailyScores(ctx context.Context, q dbtx, d *DB, userID, date string) ([]*models.DailyMetricScore, error) {
	if err := d.authorize(userID); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, date, metric_type, value, points, goal, goal_reached, updated_at
		FROM daily_metric_scores
		WHERE user_id = ? AND date = ?
		ORDER BY metric_type`, userID, date)
	if err != nil {
		return nil, &StorageError{Op: "daily scores query", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var scores []*models.DailyMetricScore
	for rows.Next() {
		var s models.DailyMetricScore
		var id, updatedAt string
		var goalReached int
		if err := rows.Scan(&id, &s.UserID, &s.Date, &s.MetricType, &s.Value,
			&s.Points, &s.Goal, &goalReached, &updatedAt); err != nil {
			return nil, &StorageError{Op: "daily scores scan", Err: err}
		}
		s.ID, _ = uuid.Parse(id)
		s.GoalReached = goalReached != 0
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		scores = append(scores, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "daily scores rows", Err: err}
	}
	return scores, nil
}

func upsertScore(ctx context.Context, q dbtx, d *DB, score *models.DailyMetricScore) error {
	if err := d.authorize(score.UserID); err != nil {
		return err
	}

	goalReached := 0
	if score.GoalReached {
		goalReached = 1
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO daily_metric_scores (id, user_id, date, metric_type, value, points, goal, goal_reached, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date, metric_type) DO UPDATE SET
			value = excluded.value,
			points = excluded.points,
			goal = excluded.goal,
			goal_reached = excluded.goal_reached,
			updated_at = excluded.updated_at`,
		score.ID.String(), score.UserID, score.Date, string(score.MetricType),
		score.Value, score.Points, score.Goal, goalReached,
		score.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return &StorageError{Op: "upsert score", Err: err}
	}
	return nil
}

func upsertMetrics(ctx context.Context, q dbtx, d *DB, hm *models.HealthMetrics) error {
	if err := d.authorize(hm.UserID); err != nil {
		return err
	}

	values := make([]any, 0, len(models.AllMetricTypes))
	for _, mt := range models.AllMetricTypes {
		if v := hm.Value(mt); v != nil {
			values = append(values, *v)
		} else {
			values = append(values, nil)
		}
	}

	args := []any{hm.UserID, hm.Date}
	args = append(args, values...)
	args = append(args,
		hm.DailyScore, hm.WeeklyScore, hm.StreakDays,
		hm.LastUpdated.Format(time.RFC3339),
		hm.CreatedAt.Format(time.RFC3339),
		hm.UpdatedAt.Format(time.RFC3339),
	)

	_, err := q.ExecContext(ctx, `
		INSERT INTO health_metrics (user_id, date, steps, distance, calories, heart_rate,
			exercise, basal_calories, flights_climbed,
			daily_score, weekly_score, streak_days, last_updated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			steps = excluded.steps,
			distance = excluded.distance,
			calories = excluded.calories,
			heart_rate = excluded.heart_rate,
			exercise = excluded.exercise,
			basal_calories = excluded.basal_calories,
			flights_climbed = excluded.flights_climbed,
			daily_score = excluded.daily_score,
			weekly_score = excluded.weekly_score,
			streak_days = excluded.streak_days,
			last_updated = excluded.last_updated,
			updated_at = excluded.updated_at`,
		args...,
	)
	if err != nil {
		return &StorageError{Op: "upsert metrics", Err: err}
	}
	return nil
}

func getMetrics(ctx context.Context, q dbtx, d *DB, userID, date string) (*models.HealthMetrics, error) {
	if err := d.authorize(userID); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `
		SELECT user_id, date, steps, distance, calories, heart_rate,
			exercise, basal_calories, flights_climbed,
			daily_score, weekly_score, streak_days, last_updated, created_at, updated_at
		FROM health_metrics
		WHERE user_id = ? AND date = ?`, userID, date)

	hm := models.NewHealthMetrics(userID, date)
	vals := make([]sql.NullFloat64, len(models.AllMetricTypes))
	var lastUpdated, createdAt, updatedAt string

	dest := []any{&hm.UserID, &hm.Date}
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	dest = append(dest, &hm.DailyScore, &hm.WeeklyScore, &hm.StreakDays,
		&lastUpdated, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "metrics scan", Err: err}
	}

	for i, mt := range models.AllMetricTypes {
		if vals[i].Valid {
			hm.SetValue(mt, vals[i].Float64)
		}
	}
	hm.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	hm.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	hm.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return hm, nil
}
