// Package snapshot moves the career database file between its remote
// authoritative copy and the local working copy.
//
// The remote snapshot is the source of truth between sessions; the local
// file is only trustworthy while the session lock is held. Pull therefore
// overwrites the local file completely at the start of every session, and
// Push replaces the whole remote object (last-write-wins) after a
// successful commit.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jobdeck/jobdeck/internal/careerdb/objstore"
)

// Syncer copies one database file between the object store and disk.
type Syncer struct {
	store     objstore.Client
	key       string
	localPath string
	logger    *log.Logger
}

// New creates a syncer for the snapshot stored under key, working against
// the local file at localPath. If logger is nil, a default logger writing
// to stderr is used.
func New(store objstore.Client, key, localPath string, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[snapshot] ", log.LstdFlags)
	}
	return &Syncer{
		store:     store,
		key:       key,
		localPath: localPath,
		logger:    logger,
	}
}

// LocalPath returns the path of the local working copy.
func (s *Syncer) LocalPath() string {
	return s.localPath
}

// Pull downloads the remote snapshot over the local working copy.
//
// If no remote snapshot exists this is the first-run bootstrap: an empty
// local file is created and Pull returns false. Otherwise the snapshot is
// written to a temp file next to the target and renamed into place, so a
// failed download never leaves a half-written database behind. Returns
// true when a snapshot was downloaded.
func (s *Syncer) Pull(ctx context.Context) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(s.localPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create data directory: %w", err)
	}

	// A crashed session can leave -wal/-shm sidecars behind. SQLite
	// replays a WAL against whatever main file sits next to it, so a
	// stale WAL would resurrect the crashed session's never-pushed
	// writes inside the freshly pulled snapshot. Remove the sidecars
	// before installing the new file.
	if err := s.removeSidecars(); err != nil {
		return false, err
	}

	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			s.logger.Printf("No remote snapshot at %s, starting with an empty database", s.key)
			return false, s.touchLocal()
		}
		return false, fmt.Errorf("failed to download snapshot %s: %w", s.key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.localPath), ".pull-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return false, fmt.Errorf("failed to write snapshot to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.localPath); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("failed to replace local database: %w", err)
	}

	s.logger.Printf("Pulled snapshot %s (%d bytes)", s.key, len(data))
	return true, nil
}

// Push uploads the local working copy as the new remote snapshot,
// replacing whatever is there. The local file must exist: pushing before
// a pull (or before any session created the file) is a caller bug.
func (s *Syncer) Push(ctx context.Context) error {
	data, err := os.ReadFile(s.localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no local database at %s: nothing to upload", s.localPath)
		}
		return fmt.Errorf("failed to read local database: %w", err)
	}

	if err := s.store.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", s.key, err)
	}

	s.logger.Printf("Pushed snapshot %s (%d bytes)", s.key, len(data))
	return nil
}

// SyncAndPush reconciles against the latest remote state and immediately
// re-publishes the local file. It is the composition of Pull then Push and
// carries no extra guarantees.
func (s *Syncer) SyncAndPush(ctx context.Context) error {
	if _, err := s.Pull(ctx); err != nil {
		return err
	}
	return s.Push(ctx)
}

// removeSidecars deletes leftover SQLite WAL and shared-memory files so
// the pulled (or bootstrapped) main file is the complete database.
func (s *Syncer) removeSidecars() error {
	for _, suffix := range []string{"-wal", "-shm"} {
		path := s.localPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale %s file: %w", suffix, err)
		}
	}
	return nil
}

// touchLocal ensures an empty local file exists without truncating one
// that is already there.
func (s *Syncer) touchLocal() error {
	f, err := os.OpenFile(s.localPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create local database file: %w", err)
	}
	return f.Close()
}
