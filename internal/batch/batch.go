// ABOUTME: Debounced, size-bounded queue of metric score writes.
// ABOUTME: Coalesces rapid updates and isolates per-row failures on flush.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/retry"
	"github.com/SG-Repo2/mylera-sub000/internal/store"
	"github.com/charmbracelet/log"
)

// Writer is the injected storage operation a flush executes per row.
type Writer interface {
	UpsertScore(ctx context.Context, score *models.DailyMetricScore) error
}

// Options tunes the manager. Zero values fall back to the defaults.
type Options struct {
	Debounce     time.Duration // quiescence before an automatic flush
	MaxBatchSize int           // queue size that triggers an immediate flush
	Retry        retry.Policy
}

/// Result summarizes one flush: rows written, rows that failed after
// retries, and whether an authorization failure aborted the batch.
type Result struct {
	Succeeded   int
	Failed      int
	AuthFailure bool
}

// Manager decouples "a metric value became known" from "it is durably
// written". Updates coalesce per (user, date, metric type); only the latest
// value per key survives to the flush.
type Manager struct {
	writer  Writer
	opts    Options
	logger  *log.Logger
	baseCtx context.Context

	mu    sync.Mutex
	queue []*models.DailyMetricScore
	index map[string]int
	timer *time.Timer
}

// NewManager creates a batch manager flushing through the given writer.
// Automatic (debounced and size-triggered) flushes run under baseCtx; an
// explicit Flush uses the caller's context.
func NewManager(baseCtx context.Context, writer Writer, opts Options, logger *log.Logger) *Manager {
	if opts.Debounce <= 0 {
		opts.Debounce = time.Second
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 50
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.BaseDelay == 0 {
		opts.Retry = retry.Policy{MaxRetries: 2, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
	}
	opts.Retry.Retryable = func(err error) bool {
		return !store.IsAuthError(err) && !retry.IsCancelled(err)
	}
	return &Manager{
		writer:  writer,
		opts:    opts,
		logger:  logger,
		baseCtx: baseCtx,
		index:   make(map[string]int),
	}
}

// Queue appends a score to the in-memory batch without blocking. A newer
// update for the same (user, date, type) replaces the queued one. Reaching
// MaxBatchSize triggers an immediate background flush; otherwise the
// debounce timer restarts.
func (m *Manager) Queue(score *models.DailyMetricScore) {
	m.mu.Lock()

	key := score.UserID + "|" + score.Date + "|" + string(score.MetricType)
	if i, ok := m.index[key]; ok {
		m.queue[i] = score
		m.resetTimerLocked()
		m.mu.Unlock()
		return
	}

	m.index[key] = len(m.queue)
	m.queue = append(m.queue, score)
	full := len(m.queue) >= m.opts.MaxBatchSize

	if full {
		m.stopTimerLocked()
	} else {
		m.resetTimerLocked()
	}
	m.mu.Unlock()

	if full {
		go m.autoFlush()
	}
}

// Pending returns the number of queued, unflushed updates.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Clear drops all queued-but-unflushed updates and cancels the pending
// debounce. An explicit discard, not a best-effort save.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
	m.queue = nil
	m.index = make(map[string]int)
}

// Flush writes every queued update through the writer, each wrapped in the
// retry policy. Failure handling per row:
//   - authorization failure: never retried, recorded, aborts the remaining
//     batch (it will not succeed on retry; it must force re-authentication);
//   - cancellation: terminal for the flush; unattempted updates re-queue;
//   - transient exhaustion: recorded, remaining rows still attempted, and
//     the last error propagates so upstream sync state reflects the failure.
func (m *Manager) Flush(ctx context.Context) (Result, error) {
	m.mu.Lock()
	m.stopTimerLocked()
	pending := m.queue
	m.queue = nil
	m.index = make(map[string]int)
	m.mu.Unlock()

	var res Result
	if len(pending) == 0 {
		return res, nil
	}

	var lastErr error
	for i, score := range pending {
		_, err := retry.WithBackoff(ctx, m.opts.Retry, func(opCtx context.Context) (struct{}, error) {
			return struct{}{}, m.writer.UpsertScore(opCtx, score)
		})
		if err == nil {
			res.Succeeded++
			continue
		}

		if store.IsAuthError(err) {
			res.Failed++
			res.AuthFailure = true
			m.requeue(pending[i+1:])
			m.logger.Error("batch flush aborted on authorization failure",
				"metric", score.MetricType, "written", res.Succeeded, "err", err)
			return res, err
		}
		if ctx.Err() != nil || retry.IsCancelled(err) {
			m.requeue(pending[i:])
			m.logger.Warn("batch flush cancelled, updates kept for a future flush",
				"written", res.Succeeded, "kept", len(pending)-i)
			return res, err
		}

		res.Failed++
		lastErr = err
		m.logger.Warn("batch update failed after retries",
			"metric", score.MetricType, "err", err)
	}

	if lastErr != nil {
		return res, fmt.Errorf("batch flush: %d of %d updates failed: %w",
			res.Failed, len(pending), lastErr)
	}
	return res, nil
}

// autoFlush runs a background flush for the debounce timer and the size
// trigger.
func (m *Manager) autoFlush() {
	if _, err := m.Flush(m.baseCtx); err != nil {
		m.logger.Warn("background batch flush failed", "err", err)
	}
}

// requeue puts not-yet-attempted updates back at the head of the queue.
// Caller must not hold the lock.
func (m *Manager) requeue(scores []*models.DailyMetricScore) {
	if len(scores) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.queue
	m.queue = nil
	m.index = make(map[string]int)
	for _, s := range append(append([]*models.DailyMetricScore{}, scores...), existing...) {
		key := s.UserID + "|" + s.Date + "|" + string(s.MetricType)
		if i, ok := m.index[key]; ok {
			m.queue[i] = s
			continue
		}
		m.index[key] = len(m.queue)
		m.queue = append(m.queue, s)
	}
}

// resetTimerLocked restarts the debounce timer. Caller holds the lock.
func (m *Manager) resetTimerLocked() {
	m.stopTimerLocked()
	m.timer = time.AfterFunc(m.opts.Debounce, m.autoFlush)
}

// stopTimerLocked cancels the pending debounce. Caller holds the lock.
func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
