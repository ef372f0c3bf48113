// ABOUTME: Factory wiring from configuration to a ready sync engine.
// ABOUTME: Opens the store and permission cache, builds provider and orchestrator.

package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/SG-Repo2/mylera-sub000/internal/batch"
	"github.com/SG-Repo2/mylera-sub000/internal/permissions"
	"github.com/SG-Repo2/mylera-sub000/internal/provider"
	"github.com/SG-Repo2/mylera-sub000/internal/provider/local"
	"github.com/SG-Repo2/mylera-sub000/internal/reconcile"
	"github.com/SG-Repo2/mylera-sub000/internal/store"
	healthsync "github.com/SG-Repo2/mylera-sub000/internal/sync"
	"github.com/charmbracelet/log"
)

// Engine is a fully wired sync stack for one user. Built by NewEngine,
// closed by Close.
type Engine struct {
	Config       *Config
	Store        *store.DB
	Perms        *permissions.Store
	Provider     provider.HealthProvider
	Batch        *batch.Manager
	Reconciler   *reconcile.Reconciler
	Orchestrator *healthsync.Orchestrator
	Logger       *log.Logger
}

// OpenStore opens the metrics database under the configured data directory,
// scoped to the configured user.
func (c *Config) OpenStore() (*store.DB, error) {
	if c.UserID == "" {
		return nil, fmt.Errorf("no user configured - set user_id in config or MYLERA_USER_ID")
	}
	dbPath := filepath.Join(c.GetDataDir(), "mylera.db")
	return store.Open(dbPath, c.UserID)
}

// OpenProvider builds the configured platform's health provider over the
// given permission cache.
func (c *Config) OpenProvider(perms *permissions.Store, logger *log.Logger) (provider.HealthProvider, error) {
	switch c.GetPlatform() {
	case "local":
		return local.New(c.GetSampleFile(), perms, logger), nil
	default:
		return nil, fmt.Errorf("unknown platform: %q", c.GetPlatform())
	}
}

// NewEngine wires the full stack: store, permission cache, provider, batch
// writer, reconciler, and orchestrator. baseCtx bounds background flushes.
func (c *Config) NewEngine(baseCtx context.Context, logger *log.Logger) (*Engine, error) {
	db, err := c.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	perms, err := permissions.Open(filepath.Join(c.GetDataDir(), "permcache"), logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open permission cache: %w", err)
	}

	p, err := c.OpenProvider(perms, logger)
	if err != nil {
		perms.Close()
		db.Close()
		return nil, err
	}

	bm := batch.NewManager(baseCtx, db, batch.Options{}, logger)
	rec := reconcile.New(db, bm, c.ScoringConfig(), reconcile.DefaultSources(), logger)
	init := provider.NewInitializer(logger)
	orch := healthsync.New(p, init, rec, bm, c.UserID, logger)

	return &Engine{
		Config:       c,
		Store:        db,
		Perms:        perms,
		Provider:     p,
		Batch:        bm,
		Reconciler:   rec,
		Orchestrator: orch,
		Logger:       logger,
	}, nil
}

// Close tears the engine down: orchestrator teardown first, then the
// permission cache and database.
func (e *Engine) Close(ctx context.Context) error {
	e.Orchestrator.Teardown(ctx)
	var firstErr error
	if err := e.Perms.Close(); err != nil {
		firstErr = err
	}
	if err := e.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
