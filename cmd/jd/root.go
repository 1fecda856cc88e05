package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jobdeck/jobdeck/internal/careerdb/db"
	"github.com/jobdeck/jobdeck/internal/careerdb/objstore"
	"github.com/jobdeck/jobdeck/internal/careerdb/session"
	"github.com/jobdeck/jobdeck/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "jd",
	Short: "Personal job search tracker",
	Long: `jd tracks job postings, applications, and analysis results in a
SQLite database whose source of truth is an object store bucket.

Every command that touches the database runs a full session: acquire the
coordination lock, pull the latest snapshot, work on a local copy, push
the result back, release the lock.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .jobdeck/config.yaml)")
	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Database sync:"},
		&cobra.Group{ID: "pipeline", Title: "Job pipeline:"},
	)
}

// fatal prints the error and exits. Command bodies call it instead of
// returning errors so every exit path prints exactly once.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// loadConfig resolves the configuration or exits. Configuration problems
// are fatal and never retried.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err)
	}
	return cfg
}

// newLogger builds the shared logger, writing to the rotating log file
// when one is configured and to stderr otherwise.
func newLogger(cfg *config.Config) *log.Logger {
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     30, // days
		}
	}
	return log.New(w, "[jd] ", log.LstdFlags)
}

// newStore builds the object store client for the configured backend.
func newStore(cfg *config.Config) (objstore.Client, error) {
	switch cfg.Store.Backend {
	case "s3":
		return objstore.NewS3(objstore.S3Config{
			Endpoint:  cfg.Store.Endpoint,
			Region:    cfg.Store.Region,
			AccessKey: cfg.Store.AccessKey,
			SecretKey: cfg.Store.SecretKey,
			Bucket:    cfg.Store.Bucket,
			UseSSL:    cfg.Store.UseSSL,
		})
	case "dir":
		return objstore.NewDir(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newSession wires the store and the session manager, exiting on failure.
func newSession(cfg *config.Config, logger *log.Logger) (*session.Manager, objstore.Client) {
	store, err := newStore(cfg)
	if err != nil {
		fatal(err)
	}
	mgr, err := session.NewManager(store, session.Config{
		SnapshotKey: cfg.SnapshotKey,
		LocalPath:   cfg.LocalDBPath,
		Lock:        cfg.Lock,
	}, logger)
	if err != nil {
		fatal(err)
	}
	return mgr, store
}

// openSyncedDB pulls the latest snapshot under the lock, then opens the
// local copy for read-only use. The lock is already released when this
// returns; the caller only reads data that was current at pull time.
func openSyncedDB(ctx context.Context, mgr *session.Manager) (*db.DB, error) {
	if err := mgr.SyncDB(ctx); err != nil {
		return nil, err
	}
	database, err := db.Open(mgr.LocalPath())
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}
