// Package db provides the embedded SQLite store for career data.
//
// The database runs on the wasm build of SQLite (ncruces/go-sqlite3, no
// cgo) in WAL mode. Close checkpoints the WAL back into the main file so
// the single database file on disk is always complete and can be shipped
// to the object store as a whole-file snapshot.
//
// The database file is shared between automation runs through the session
// package: it is re-downloaded before every session and uploaded after
// every committed one, so connections must never be held across sessions.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite connection for one session's working copy.
type DB struct {
	conn *sql.DB
	path string
	Queries
}

// Open creates a database connection at the specified path.
//
// The parent directory is created if needed. The caller MUST call Close()
// when done: besides releasing the connection, Close checkpoints the WAL
// so the file is complete for snapshot upload.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Sessions are short-lived and single-process; a small pool is plenty.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{
		conn:    conn,
		path:    path,
		Queries: Queries{e: conn},
	}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Path returns the on-disk location of the database file.
func (db *DB) Path() string {
	return db.path
}

// RawDB returns the underlying sql.DB connection.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close checkpoints the WAL and closes the connection. After a nil
// return the database file on disk contains every committed change; a
// checkpoint failure is reported as an error because committed rows may
// still be stranded in the WAL, which makes the main file unsafe to ship
// as a snapshot.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	_, checkpointErr := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")

	if err := db.conn.Close(); err != nil {
		db.conn = nil
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil

	if checkpointErr != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", checkpointErr)
	}
	return nil
}

// Begin starts a transaction. All writes in a session happen inside one
// transaction so a failed caller body rolls back cleanly.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx, Queries: Queries{e: tx}}, nil
}

// Tx is a transaction handle carrying the same query surface as DB.
type Tx struct {
	tx *sql.Tx
	Queries
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Rolling back after a commit is a no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// InitSchema creates the career schema if it doesn't exist. Idempotent:
// safe to call at the start of every session, including against a freshly
// bootstrapped empty file.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT,
		location TEXT,
		source TEXT,
		status TEXT NOT NULL DEFAULT 'discovered',
		description TEXT,
		fit_score INTEGER NOT NULL DEFAULT 0,
		analysis_notes TEXT,
		posted_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS skills (
		name TEXT PRIMARY KEY,
		category TEXT,
		years REAL NOT NULL DEFAULT 0,
		evidence TEXT
	);

	CREATE TABLE IF NOT EXISTS experiences (
		id TEXT PRIMARY KEY,
		employer TEXT NOT NULL,
		role TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT,
		highlights TEXT  -- JSON array
	);

	CREATE TABLE IF NOT EXISTS applications (
		job_id TEXT NOT NULL,
		resume_version TEXT,
		cover_letter_key TEXT,
		channel TEXT,
		submitted_at TEXT NOT NULL,
		PRIMARY KEY (job_id, submitted_at),
		FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);
	CREATE INDEX IF NOT EXISTS idx_jobs_fit ON jobs(fit_score);
	CREATE INDEX IF NOT EXISTS idx_applications_job ON applications(job_id);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}
