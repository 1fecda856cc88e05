package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jobdeck/jobdeck/internal/careerdb/objstore"
)

// ErrLockUnavailable is returned by Acquire once its retry budget is
// exhausted. The caller has mutated no state and may retry the whole
// session later.
var ErrLockUnavailable = errors.New("lock unavailable: retry budget exhausted")

// Marker is the JSON content of the remote lock object.
type Marker struct {
	AcquiredAt time.Time `json:"acquired_at"`
	Holder     string    `json:"holder,omitempty"`
}

// Age returns how long ago the marker was created, relative to now.
func (m *Marker) Age(now time.Time) time.Duration {
	return now.Sub(m.AcquiredAt)
}

// Options tunes the acquisition loop.
type Options struct {
	// MaxAttempts is the number of acquisition attempts before giving up.
	// Must be at least 1.
	MaxAttempts int

	// RetryDelay is the sleep between attempts when the lock is held by a
	// live holder.
	RetryDelay time.Duration

	// Staleness is the marker age beyond which the holder is presumed
	// crashed and the marker may be removed by a waiting acquirer.
	Staleness time.Duration
}

// DefaultOptions matches the cadence of the CI jobs that share the
// database: short sessions, a five minute crash-recovery window.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 10,
		RetryDelay:  2 * time.Second,
		Staleness:   5 * time.Minute,
	}
}

// Manager acquires and releases a single named lock marker in the object
// store. One Manager guards one resource key.
type Manager struct {
	store  objstore.Client
	key    string
	holder string
	opts   Options
	logger *log.Logger

	// now is swappable for staleness tests.
	now func() time.Time
}

// New creates a lock manager for the given resource. The marker is stored
// at "<resource>.lock". If logger is nil, a default logger writing to
// stderr is used.
func New(store objstore.Client, resource string, opts Options, logger *log.Logger) (*Manager, error) {
	if resource == "" {
		return nil, fmt.Errorf("resource key is required")
	}
	if opts.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1 (got %d)", opts.MaxAttempts)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[lock] ", log.LstdFlags)
	}

	hostname, _ := os.Hostname()
	return &Manager{
		store:  store,
		key:    resource + ".lock",
		holder: fmt.Sprintf("%s#%d", hostname, os.Getpid()),
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Key returns the remote key of the lock marker.
func (m *Manager) Key() string {
	return m.key
}

// Acquire attempts to take the lock, retrying up to MaxAttempts times.
//
// Each attempt checks for an existing marker. An absent marker is claimed
// immediately. A marker older than the staleness threshold (or one whose
// content cannot be parsed) is deleted and the next attempt follows without
// sleeping. A fresh marker causes a RetryDelay sleep before the next
// attempt. Returns ErrLockUnavailable once attempts are exhausted.
//
// Note the check-then-write race: two processes can both observe the
// marker absent and both write one. See the package comment.
func (m *Manager) Acquire(ctx context.Context) error {
	for attempt := 1; attempt <= m.opts.MaxAttempts; attempt++ {
		exists, err := m.store.Exists(ctx, m.key)
		if err != nil {
			return fmt.Errorf("failed to check lock marker: %w", err)
		}

		if !exists {
			if err := m.writeMarker(ctx); err != nil {
				return err
			}
			m.logger.Printf("Acquired lock %s (attempt %d/%d)", m.key, attempt, m.opts.MaxAttempts)
			return nil
		}

		marker, err := m.readMarker(ctx)
		if err != nil {
			// The holder may have released between Exists and Get.
			if errors.Is(err, objstore.ErrNotFound) {
				continue
			}
			return err
		}

		if marker == nil || marker.Age(m.now()) > m.opts.Staleness {
			if marker == nil {
				m.logger.Printf("WARNING: Removing unreadable lock marker %s", m.key)
			} else {
				m.logger.Printf("WARNING: Removing stale lock marker %s (age %s, holder %q)",
					m.key, marker.Age(m.now()).Round(time.Second), marker.Holder)
			}
			if err := m.store.Delete(ctx, m.key); err != nil {
				return fmt.Errorf("failed to remove stale lock marker: %w", err)
			}
			// Retry immediately; the slot should now be free.
			continue
		}

		if attempt < m.opts.MaxAttempts {
			if err := sleep(ctx, m.opts.RetryDelay); err != nil {
				return err
			}
		}
	}

	m.logger.Printf("Lock %s unavailable after %d attempts", m.key, m.opts.MaxAttempts)
	return ErrLockUnavailable
}

// Release deletes the lock marker. It is idempotent: releasing an already
// absent marker is a no-op, never an error.
func (m *Manager) Release(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	m.logger.Printf("Released lock %s", m.key)
	return nil
}

// ForceUnlock deletes the marker regardless of its age. This is an
// administrative override: it is unsafe if another session is genuinely
// active, which is why it is a separate operation that no ordinary code
// path calls.
func (m *Manager) ForceUnlock(ctx context.Context) error {
	m.logger.Printf("WARNING: Force-unlocking %s", m.key)
	if err := m.store.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("failed to force-unlock: %w", err)
	}
	return nil
}

// Holder returns the current marker, or nil if the lock is not held.
func (m *Manager) Holder(ctx context.Context) (*Marker, error) {
	marker, err := m.readMarker(ctx)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return marker, nil
}

// writeMarker stores a fresh marker under the lock key.
func (m *Manager) writeMarker(ctx context.Context) error {
	data, err := json.Marshal(&Marker{
		AcquiredAt: m.now().UTC(),
		Holder:     m.holder,
	})
	if err != nil {
		return fmt.Errorf("failed to encode lock marker: %w", err)
	}
	if err := m.store.Put(ctx, m.key, data); err != nil {
		return fmt.Errorf("failed to write lock marker: %w", err)
	}
	return nil
}

// readMarker fetches and parses the current marker. A marker whose content
// cannot be parsed is reported as (nil, nil): it can never be released by
// its holder, so the caller treats it as stale.
func (m *Manager) readMarker(ctx context.Context) (*Marker, error) {
	data, err := m.store.Get(ctx, m.key)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, objstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read lock marker: %w", err)
	}

	var marker Marker
	if err := json.Unmarshal(data, &marker); err != nil || marker.AcquiredAt.IsZero() {
		return nil, nil
	}
	return &marker, nil
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
