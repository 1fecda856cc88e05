// Package session is the only entry point for touching the shared career
// database. It composes the lock manager and the snapshot syncer around a
// local SQLite transaction so that independent automation runs (CI jobs,
// local CLI invocations) serialize cleanly against one remote source of
// truth.
//
// A session is one acquire → pull → transact → push → release cycle:
//
//	mgr.With(ctx, func(tx *db.Tx) error {
//	    return tx.UpsertJob(ctx, job)
//	})
//
// Guarantees:
//
//   - The lock is released on every exit path, including panics. A crash
//     that skips release is recovered by the lock's staleness timeout.
//   - The snapshot is pushed if and only if the local transaction
//     committed. A caller error rolls back and publishes nothing.
//   - A failed push after a successful commit is surfaced as a push-phase
//     SyncError and logged loudly: it is the one window where local and
//     remote state diverge, and the next puller would silently read stale
//     data.
//
// The local database file is disposable: it is overwritten by the pull at
// the start of every session, and connections are opened fresh per session
// because the file changes underneath between sessions.
package session
