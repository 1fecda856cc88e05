// Package lock provides best-effort mutual exclusion over the shared
// career database snapshot, using only plain put/get/delete/exists on the
// object store.
//
// A lock is a small remote object whose presence means "resource in use".
// The marker carries its own creation timestamp; any acquirer that finds a
// marker older than the staleness threshold presumes the holder crashed,
// deletes it, and retries. This is the recovery path for processes killed
// mid-session (CI runners, serverless instances).
//
// The lock is advisory. Without a conditional-put primitive there is a
// small window between "check absent" and "write marker" in which two
// processes can both believe they acquired it. The automation this tool
// runs at (a handful of low-frequency batch jobs) makes that window an
// accepted trade-off, not a correctness guarantee.
package lock
