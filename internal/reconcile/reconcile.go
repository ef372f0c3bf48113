// ABOUTME: Unified metrics reconciler merging remote-store and provider data.
// ABOUTME: Decides per metric whether stored data is trusted or re-derived.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/batch"
	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/provider"
	"github.com/SG-Repo2/mylera-sub000/internal/retry"
	"github.com/SG-Repo2/mylera-sub000/internal/scoring"
	"github.com/SG-Repo2/mylera-sub000/internal/store"
	"github.com/charmbracelet/log"
)

// Reconciler merges DailyMetricScore rows from the store with provider data
// into one canonical HealthMetrics record per sync.
type Reconciler struct {
	store        store.Store
	batch        *batch.Manager
	scoring      scoring.Config
	sources      Sources
	logger       *log.Logger
	fetchTimeout time.Duration
	now          func() time.Time
}

// New creates a reconciler over the given store and batch manager. The
// sources table and scoring config are injected and treated as immutable.
func New(st store.Store, bm *batch.Manager, sc scoring.Config, sources Sources, logger *log.Logger) *Reconciler {
	return &Reconciler{
		store:        st,
		batch:        bm,
		scoring:      sc,
		sources:      sources,
		logger:       logger,
		fetchTimeout: 15 * time.Second,
		now:          time.Now,
	}
}

// SetClock overrides the reconciler's clock. Test hook.
func (r *Reconciler) SetClock(now func() time.Time) { r.now = now }

// Reconcile produces the canonical daily record for (user, date):
//
//  1. Complete and fresh store rows win outright; the provider is not
//     called. This is the fast, offline-safe path.
//  2. Otherwise the provider's aggregate is fetched, its native-sourced
//     finite non-negative values are queued for write-back, and the
//     provider record is returned.
//  3. A failed provider call degrades to the partial store-derived record
//     when one exists; only with neither does the pass fail.
//
// The store work runs inside one transaction: any error rolls back before
// propagating, the happy paths commit before returning. After a write-back
// the affected rows are re-read and mismatches logged, never failed — a
// diagnostic net against concurrent writers, not a correctness gate.
func (r *Reconciler) Reconcile(ctx context.Context, userID, date string, p provider.HealthProvider) (*models.HealthMetrics, error) {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	hm, wroteBack, err := r.reconcileTx(ctx, tx, userID, date, p)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if wroteBack {
		if _, err := r.batch.Flush(ctx); err != nil {
			return nil, fmt.Errorf("write back reconciled metrics: %w", err)
		}
		r.verifyWriteback(ctx, userID, date, hm)
	}
	return hm, nil
}

func (r *Reconciler) reconcileTx(ctx context.Context, tx store.Tx, userID, date string, p provider.HealthProvider) (*models.HealthMetrics, bool, error) {
	scores, err := tx.DailyScores(ctx, userID, date)
	if err != nil {
		return nil, false, err
	}

	if r.hasCompleteMetrics(scores) && !r.anyStale(scores) {
		hm, err := r.fromScores(ctx, tx, userID, date, scores)
		return hm, false, err
	}

	if p == nil || !p.Available(ctx) {
		if len(scores) > 0 {
			hm, err := r.fromScores(ctx, tx, userID, date, scores)
			return hm, false, err
		}
		return nil, false, fmt.Errorf("no provider available and no stored metrics for %s", date)
	}

	fetched, err := retry.WithTimeout(ctx, r.fetchTimeout, "provider metrics fetch",
		func(opCtx context.Context) (*models.HealthMetrics, error) {
			return p.Metrics(opCtx)
		})
	if err != nil {
		if retry.IsCancelled(err) {
			return nil, false, err
		}
		if len(scores) > 0 {
			r.logger.Warn("provider fetch failed, falling back to stored metrics",
				"user", userID, "date", date, "err", err)
			hm, ferr := r.fromScores(ctx, tx, userID, date, scores)
			return hm, false, ferr
		}
		return nil, false, fmt.Errorf("fetch provider metrics: %w", err)
	}

	wroteBack := r.queueWriteback(userID, date, fetched)

	if err := r.applyAggregate(ctx, tx, fetched); err != nil {
		return nil, false, err
	}
	return fetched, wroteBack, nil
}

// hasCompleteMetrics reports whether every metric type is present with a
// valid non-negative value. Completeness and freshness are independent
// conditions; both must hold for the fast path.
func (r *Reconciler) hasCompleteMetrics(scores []*models.DailyMetricScore) bool {
	if len(scores) < len(models.AllMetricTypes) {
		return false
	}
	seen := make(map[models.MetricType]bool, len(scores))
	for _, s := range scores {
		if !models.IsWritableValue(s.Value) {
			return false
		}
		seen[s.MetricType] = true
	}
	for _, mt := range models.AllMetricTypes {
		if !seen[mt] {
			return false
		}
	}
	return true
}

func (r *Reconciler) anyStale(scores []*models.DailyMetricScore) bool {
	now := r.now()
	for _, s := range scores {
		if r.sources.IsStale(s.MetricType, s.UpdatedAt, now) {
			return true
		}
	}
	return false
}

// fromScores transforms store rows into the canonical record. Aggregate
// fields come from the stored aggregate row when one exists, so two
// consecutive passes over identical rows produce identical output.
func (r *Reconciler) fromScores(ctx context.Context, tx store.Tx, userID, date string, scores []*models.DailyMetricScore) (*models.HealthMetrics, error) {
	hm := models.NewHealthMetrics(userID, date)
	for _, s := range scores {
		if models.IsWritableValue(s.Value) {
			hm.SetValue(s.MetricType, s.Value)
		}
	}
	hm.DailyScore = r.scoring.DailyTotal(hm.Values)

	// Deterministic output: timestamps come from the stored aggregate or
	// stay zero, so identical inputs reconcile to identical records.
	hm.LastUpdated = time.Time{}
	hm.CreatedAt = time.Time{}
	hm.UpdatedAt = time.Time{}

	stored, err := tx.Metrics(ctx, userID, date)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err == nil {
		hm.WeeklyScore = stored.WeeklyScore
		hm.StreakDays = stored.StreakDays
		hm.LastUpdated = stored.LastUpdated
		hm.CreatedAt = stored.CreatedAt
		hm.UpdatedAt = stored.UpdatedAt
	}
	return hm, nil
}

// queueWriteback queues a scored row for every native-sourced metric with a
// writable value. NaN, negative, and absent values are skipped, not written
// as zero. Returns whether anything was queued.
func (r *Reconciler) queueWriteback(userID, date string, hm *models.HealthMetrics) bool {
	queued := false
	for _, mt := range models.AllMetricTypes {
		if !r.sources.IsNative(mt) {
			continue
		}
		v := hm.Value(mt)
		if v == nil || !models.IsWritableValue(*v) {
			continue
		}
		s := r.scoring.Score(userID, date, mt, *v)
		s.UpdatedAt = r.now()
		r.batch.Queue(s)
		queued = true
	}
	return queued
}

// applyAggregate fills and upserts the day's aggregate row. The streak and
// weekly score derive from yesterday's aggregate, so recomputing the same
// day is idempotent: yesterday's totals never include today.
func (r *Reconciler) applyAggregate(ctx context.Context, tx store.Tx, hm *models.HealthMetrics) error {
	hm.DailyScore = r.scoring.DailyTotal(hm.Values)

	day, err := time.Parse("2006-01-02", hm.Date)
	if err != nil {
		return fmt.Errorf("parse reconcile date: %w", err)
	}
	yesterday := day.AddDate(0, 0, -1).Format("2006-01-02")

	prev, err := tx.Metrics(ctx, hm.UserID, yesterday)
	switch {
	case errors.Is(err, store.ErrNotFound):
		prev = nil
	case err != nil:
		return err
	}

	if hm.DailyScore > 0 {
		hm.StreakDays = 1
		if prev != nil {
			hm.StreakDays = prev.StreakDays + 1
		}
	} else {
		hm.StreakDays = 0
	}

	// Weekly score accumulates Monday through Sunday.
	hm.WeeklyScore = hm.DailyScore
	if day.Weekday() != time.Monday && prev != nil {
		hm.WeeklyScore = prev.WeeklyScore + hm.DailyScore
	}

	now := r.now()
	hm.LastUpdated = now
	hm.UpdatedAt = now
	if hm.CreatedAt.IsZero() {
		hm.CreatedAt = now
	}

	return tx.UpsertMetrics(ctx, hm)
}

// verifyWriteback re-reads the rows just flushed and logs any value drift.
func (r *Reconciler) verifyWriteback(ctx context.Context, userID, date string, expected *models.HealthMetrics) {
	scores, err := r.store.DailyScores(ctx, userID, date)
	if err != nil {
		r.logger.Warn("write-back verification read failed", "user", userID, "err", err)
		return
	}

	stored := make(map[models.MetricType]float64, len(scores))
	for _, s := range scores {
		stored[s.MetricType] = s.Value
	}
	for _, mt := range models.AllMetricTypes {
		v := expected.Value(mt)
		if v == nil || !r.sources.IsNative(mt) {
			continue
		}
		if got, ok := stored[mt]; !ok || got != *v {
			r.logger.Warn("write-back verification mismatch",
				"user", userID, "date", date, "metric", mt,
				"written", *v, "stored", stored[mt])
		}
	}
}
