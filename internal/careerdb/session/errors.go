package session

import (
	"fmt"

	"github.com/jobdeck/jobdeck/internal/careerdb/lock"
)

// ErrLockUnavailable is returned (wrapped) when the session could not
// acquire the database lock within its retry budget. No state has been
// touched; the caller may retry the whole session later.
var ErrLockUnavailable = lock.ErrLockUnavailable

// Sync phases, used in SyncError and in operator-facing messages so a
// failed automation run names the step that failed.
const (
	PhasePull = "pull"
	PhasePush = "push"
)

// SyncError wraps an object-store failure during pull or push.
//
// A pull failure aborts the session before any local state is trusted. A
// push failure is the serious one: the local transaction already
// committed, so local and remote state have diverged until the next
// successful push. Callers distinguish the two via Phase.
type SyncError struct {
	Phase string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s failed: %v", e.Phase, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
