// ABOUTME: Top-level sync orchestrator: the state machine callers drive.
// ABOUTME: Single-flight permission → fetch → reconcile → write sequencing.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/batch"
	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/provider"
	"github.com/charmbracelet/log"
)

// Status is the orchestrator's externally visible state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// State is a snapshot of the most recent sync session.
type State struct {
	Status       Status
	LastSyncTime time.Time
	LastError    string
	Category     Category
	Metrics      map[models.MetricType]*float64
	DailyScore   int
	StreakDays   int
}

// reconciler is the slice of the metrics reconciler the orchestrator drives.
type reconciler interface {
	Reconcile(ctx context.Context, userID, date string, p provider.HealthProvider) (*models.HealthMetrics, error)
}

// initializer is the provider bring-up orchestrator.
type initializer interface {
	Run(ctx context.Context, p provider.HealthProvider) error
	State() provider.InitState
}

// Orchestrator guarantees at most one synchronization in flight per user.
// A sync request while one is running is a no-op: not queued, not an error.
type Orchestrator struct {
	provider provider.HealthProvider
	init     initializer
	rec      reconciler
	batch    *batch.Manager
	userID   string
	debounce time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu       stdsync.Mutex
	inFlight bool
	state    State
	trigger  *time.Timer
}

// New creates an orchestrator for one user over an already-constructed
// provider, initializer, reconciler, and batch manager.
func New(p provider.HealthProvider, init initializer, rec reconciler, bm *batch.Manager, userID string, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		provider: p,
		init:     init,
		rec:      rec,
		batch:    bm,
		userID:   userID,
		debounce: 800 * time.Millisecond,
		logger:   logger,
		now:      time.Now,
		state:    State{Status: StatusIdle},
	}
}

// SetClock overrides the time source. Test hook.
func (o *Orchestrator) SetClock(now func() time.Time) { o.now = now }

// State returns a snapshot of the current sync state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := o.state
	if o.state.Metrics != nil {
		snap.Metrics = make(map[models.MetricType]*float64, len(o.state.Metrics))
		for k, v := range o.state.Metrics {
			snap.Metrics[k] = v
		}
	}
	return snap
}

// Sync runs one synchronization attempt. Single-flight: a call while a sync
// is already running returns immediately with no side effects. The returned
// error is the raw cause; the classified user-facing message lands in State.
func (o *Orchestrator) Sync(ctx context.Context) error {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil
	}
	o.inFlight = true
	o.state.Status = StatusSyncing
	o.mu.Unlock()

	hm, err := o.doSync(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	if err != nil {
		cat, msg := Classify(err)
		o.state.Status = StatusError
		o.state.Category = cat
		o.state.LastError = msg
		o.logger.Error("sync failed", "user", o.userID, "category", cat, "err", err)
		return err
	}

	o.state.Status = StatusSuccess
	o.state.Category = ""
	o.state.LastError = ""
	o.state.LastSyncTime = o.now()
	o.state.Metrics = hm.Values
	o.state.DailyScore = hm.DailyScore
	o.state.StreakDays = hm.StreakDays
	o.provider.SetLastSyncTime(o.state.LastSyncTime)
	o.logger.Info("sync complete", "user", o.userID, "daily_score", hm.DailyScore)
	return nil
}

// doSync sequences one attempt. The permission check strictly precedes the
// data fetch, which strictly precedes write-back; no step runs speculatively.
func (o *Orchestrator) doSync(ctx context.Context) (*models.HealthMetrics, error) {
	// Bind the target user before bring-up: the initializer treats a
	// missing user id as a configuration error, not a retryable failure.
	if err := o.provider.InitializePermissions(ctx, o.userID); err != nil {
		return nil, err
	}

	if o.init.State() != provider.InitReady {
		if err := o.init.Run(ctx, o.provider); err != nil {
			return nil, err
		}
	}

	if err := o.provider.PermissionManager().Ensure(ctx); err != nil {
		return nil, err
	}

	date := o.now().Format("2006-01-02")
	return o.rec.Reconcile(ctx, o.userID, date, o.provider)
}

// TriggerSync schedules a debounced background sync. Rapid repeated triggers
// collapse into one attempt; the single-flight guard covers overlap with an
// already-running sync. Errors surface through State, not a return value.
func (o *Orchestrator) TriggerSync(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.trigger != nil {
		o.trigger.Stop()
	}
	o.trigger = time.AfterFunc(o.debounce, func() {
		_ = o.Sync(ctx)
	})
}

// Teardown cancels pending debounced work, drops queued-but-unflushed batch
// updates, and cleans up the provider. Cleanup errors are logged, never
// returned.
func (o *Orchestrator) Teardown(ctx context.Context) {
	o.mu.Lock()
	if o.trigger != nil {
		o.trigger.Stop()
		o.trigger = nil
	}
	o.state.Status = StatusIdle
	o.mu.Unlock()

	o.batch.Clear()
	if err := o.provider.Cleanup(ctx); err != nil {
		o.logger.Error("provider cleanup on teardown", "user", o.userID, "err", err)
	}
}
