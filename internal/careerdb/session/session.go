package session

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jobdeck/jobdeck/internal/careerdb/db"
	"github.com/jobdeck/jobdeck/internal/careerdb/lock"
	"github.com/jobdeck/jobdeck/internal/careerdb/objstore"
	"github.com/jobdeck/jobdeck/internal/careerdb/snapshot"
)

// Config names the two remote objects and the local working copy.
type Config struct {
	// SnapshotKey is the remote key of the database snapshot. The lock
	// marker lives at "<SnapshotKey>.lock".
	SnapshotKey string

	// LocalPath is the on-disk working copy, overwritten on every pull.
	LocalPath string

	// Lock tunes the acquisition loop.
	Lock lock.Options
}

// Manager runs lock-guarded database sessions against the object store.
type Manager struct {
	lock   *lock.Manager
	syncer *snapshot.Syncer
	logger *log.Logger
}

// NewManager creates a session manager. If logger is nil, a default
// logger writing to stderr is used.
func NewManager(store objstore.Client, cfg Config, logger *log.Logger) (*Manager, error) {
	if cfg.SnapshotKey == "" {
		return nil, fmt.Errorf("snapshot key is required")
	}
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("local database path is required")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[session] ", log.LstdFlags)
	}

	locker, err := lock.New(store, cfg.SnapshotKey, cfg.Lock, logger)
	if err != nil {
		return nil, err
	}

	return &Manager{
		lock:   locker,
		syncer: snapshot.New(store, cfg.SnapshotKey, cfg.LocalPath, logger),
		logger: logger,
	}, nil
}

// With runs fn inside one complete session:
//
//	acquire lock → pull snapshot → open fresh local db → begin tx →
//	fn → commit (or rollback) → close db → push iff committed → release
//
// Error semantics:
//
//   - Lock acquisition failure returns an error wrapping
//     ErrLockUnavailable; nothing was touched.
//   - Pull failure returns a *SyncError (phase pull) after releasing the
//     lock; the possibly half-synced local file is never opened.
//   - An error from fn rolls back the transaction, skips the push, and is
//     returned to the caller unchanged.
//   - Push failure after a successful commit returns a *SyncError (phase
//     push); the lock is still released.
//   - A failed post-commit checkpoint counts as a push failure: the
//     snapshot is not uploaded and a push-phase *SyncError is returned,
//     because the main file may be missing committed rows.
func (m *Manager) With(ctx context.Context, fn func(tx *db.Tx) error) (err error) {
	if err := m.lock.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire: %w", err)
	}

	// The lock must be released exactly once on every exit path,
	// including a panic in fn. Staleness recovery covers a hard crash.
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if rerr := m.lock.Release(ctx); rerr != nil {
			m.logger.Printf("ERROR: failed to release lock: %v", rerr)
		}
	}
	defer release()

	if _, err := m.syncer.Pull(ctx); err != nil {
		return &SyncError{Phase: PhasePull, Err: err}
	}

	// A fresh connection per session: the file was just replaced.
	database, err := db.Open(m.syncer.LocalPath())
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	closed := false
	closeDB := func() error {
		if closed {
			return nil
		}
		closed = true
		return database.Close()
	}
	defer func() {
		if cerr := closeDB(); cerr != nil {
			m.logger.Printf("ERROR: failed to close local database: %v", cerr)
		}
	}()

	if err := database.InitSchema(ctx); err != nil {
		return err
	}

	tx, err := database.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Printf("ERROR: failed to roll back transaction: %v", rbErr)
		}
		// The caller's error passes through untouched so its diagnostics
		// survive; no push happens on this path.
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// Close before pushing so the WAL is checkpointed and the file on
	// disk contains the commit. A failed checkpoint means the main file
	// may be missing committed rows, so pushing it would publish a bad
	// snapshot: skip the push and surface the divergence.
	if err := closeDB(); err != nil {
		m.logger.Printf("ERROR: local commit succeeded but the database could not be checkpointed; remote copy is stale until the next successful push: %v", err)
		return &SyncError{Phase: PhasePush, Err: err}
	}

	if err := m.syncer.Push(ctx); err != nil {
		m.logger.Printf("ERROR: local commit succeeded but snapshot push failed; remote copy is stale until the next successful push: %v", err)
		return &SyncError{Phase: PhasePush, Err: err}
	}

	return nil
}

// SyncDB pulls the latest snapshot under the lock without opening a
// transaction. It warms a fresh environment (CI checkout, new machine)
// with current data.
func (m *Manager) SyncDB(ctx context.Context) error {
	if err := m.lock.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer func() {
		if rerr := m.lock.Release(ctx); rerr != nil {
			m.logger.Printf("ERROR: failed to release lock: %v", rerr)
		}
	}()

	if _, err := m.syncer.Pull(ctx); err != nil {
		return &SyncError{Phase: PhasePull, Err: err}
	}
	return nil
}

// ForceUnlock removes the lock marker regardless of age. Administrative
// escape hatch; unsafe if another session is genuinely active.
func (m *Manager) ForceUnlock(ctx context.Context) error {
	return m.lock.ForceUnlock(ctx)
}

// LockHolder reports the current lock marker, or nil when unlocked.
func (m *Manager) LockHolder(ctx context.Context) (*lock.Marker, error) {
	return m.lock.Holder(ctx)
}

// LocalPath returns the path of the local working copy.
func (m *Manager) LocalPath() string {
	return m.syncer.LocalPath()
}
