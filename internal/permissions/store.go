// ABOUTME: Durable TTL-based cache of permission state, backed by Badger.
// ABOUTME: Keyed by (user, platform); I/O failures degrade to cache misses.
package permissions

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"
)

const keyPrefix = "perm:"

// Store caches permission state per (user, platform) with a 24h TTL.
// Caching is an optimization, not a correctness dependency: any store I/O
// failure is logged and treated as a miss, forcing a re-check upstream.
type Store struct {
	db     *badger.DB
	logger *log.Logger
	now    func() time.Time
	mu     sync.RWMutex
}

// Open opens or creates the permission cache at the given directory.
func Open(path string, logger *log.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func cacheKey(userID, platform string) []byte {
	return []byte(keyPrefix + userID + ":" + platform)
}

// Get returns the cached state for (user, platform), or ok=false if never
// written, TTL-expired, or unreadable. Expired entries are evicted on read.
func (s *Store) Get(userID, platform string) (models.PermissionState, bool) {
	s.mu.RLock()
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(userID, platform))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	s.mu.RUnlock()

	if err == badger.ErrKeyNotFound {
		return models.PermissionState{}, false
	}
	if err != nil {
		s.logger.Warn("permission cache read failed, treating as miss",
			"user", userID, "platform", platform, "err", err)
		return models.PermissionState{}, false
	}

	var state models.PermissionState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("permission cache entry corrupt, treating as miss",
			"user", userID, "platform", platform, "err", err)
		s.Clear(userID, platform)
		return models.PermissionState{}, false
	}

	if state.Expired(s.now()) {
		s.Clear(userID, platform)
		return models.PermissionState{}, false
	}
	return state, true
}

// Put atomically replaces the full cached tuple for (user, platform).
// Callers doing partial updates must read-merge first so an unrelated field
// (like DeniedPermissions) is not silently dropped.
func (s *Store) Put(userID, platform string, state models.PermissionState) {
	raw, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn("permission cache marshal failed", "user", userID, "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(userID, platform), raw).WithTTL(models.PermissionTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		s.logger.Warn("permission cache write failed",
			"user", userID, "platform", platform, "err", err)
	}
}

// Clear removes the cached entry, forcing a re-check on next use.
func (s *Store) Clear(userID, platform string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(userID, platform))
	})
	if err != nil && err != badger.ErrKeyNotFound {
		s.logger.Warn("permission cache clear failed",
			"user", userID, "platform", platform, "err", err)
	}
}
