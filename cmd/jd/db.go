package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobdeck/jobdeck/internal/careerdb/session"
	"github.com/jobdeck/jobdeck/internal/ui"
)

var dbCmd = &cobra.Command{
	Use:     "db",
	GroupID: "sync",
	Short:   "Manage the shared career database",
	Long: `Manage the career database snapshot in the object store.

The snapshot is the source of truth; the local copy under .jobdeck/ is a
working copy that is refreshed before every session.`,
}

var dbSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the latest database snapshot",
	Long: `Acquire the lock, download the latest snapshot to the local
working copy, and release the lock. Makes no changes to remote state.

Use this to warm a fresh checkout or a new machine.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, _ := newSession(cfg, newLogger(cfg))

		start := time.Now()
		if err := mgr.SyncDB(ctx); err != nil {
			fatal(err)
		}

		info, err := os.Stat(mgr.LocalPath())
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s Synced %s (%d bytes) in %v\n",
			ui.RenderPass("✓"), mgr.LocalPath(), info.Size(),
			time.Since(start).Round(time.Millisecond))
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show snapshot and lock status",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, store := newSession(cfg, newLogger(cfg))

		exists, err := store.Exists(ctx, cfg.SnapshotKey)
		if err != nil {
			fatal(err)
		}
		if exists {
			fmt.Printf("%s Remote snapshot: %s\n", ui.RenderPass("✓"), cfg.SnapshotKey)
		} else {
			fmt.Printf("%s Remote snapshot: absent (first session will create it)\n", ui.RenderWarn("⚠"))
		}

		if info, err := os.Stat(mgr.LocalPath()); err == nil {
			fmt.Printf("   Local copy: %s (%d bytes, modified %s)\n",
				mgr.LocalPath(), info.Size(), info.ModTime().Format(time.RFC3339))
		} else {
			fmt.Printf("   Local copy: absent (run 'jd db sync')\n")
		}

		printLockStatus(ctx, mgr, cfg.Lock.Staleness)
	},
}

var forceUnlockYes bool

var dbForceUnlockCmd = &cobra.Command{
	Use:   "force-unlock",
	Short: "Remove the coordination lock regardless of age",
	Long: `Remove the lock marker even if it is fresh.

This is an escape hatch for a lock left behind by a crashed run. If
another session is genuinely active, forcing the lock off can lose its
writes. Stale locks clear themselves; reach for this only when a fresh
marker is known to be orphaned.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, _ := newSession(cfg, newLogger(cfg))

		holder, err := mgr.LockHolder(ctx)
		if err != nil {
			fatal(err)
		}
		if holder == nil {
			fmt.Printf("%s No lock is held\n", ui.RenderPass("✓"))
			return
		}

		age := holder.Age(time.Now()).Round(time.Second)
		if !forceUnlockYes && age < cfg.Lock.Staleness {
			fmt.Fprintf(os.Stderr, "%s Lock held by %s for only %v (staleness threshold %v)\n",
				ui.RenderWarn("⚠"), holder.Holder, age, cfg.Lock.Staleness)
			fmt.Fprintf(os.Stderr, "   Re-run with --yes to remove it anyway\n")
			os.Exit(1)
		}

		if err := mgr.ForceUnlock(ctx); err != nil {
			fatal(err)
		}
		fmt.Printf("%s Removed lock held by %s (age %v)\n", ui.RenderPass("✓"), holder.Holder, age)
	},
}

func printLockStatus(ctx context.Context, mgr *session.Manager, staleness time.Duration) {
	holder, err := mgr.LockHolder(ctx)
	if err != nil {
		fatal(err)
	}
	switch {
	case holder == nil:
		fmt.Printf("   Lock: free\n")
	case holder.Age(time.Now()) > staleness:
		fmt.Printf("   Lock: %s held by %s for %v (stale, next session will break it)\n",
			ui.RenderWarn("⚠"), holder.Holder, holder.Age(time.Now()).Round(time.Second))
	default:
		fmt.Printf("   Lock: held by %s since %s\n",
			holder.Holder, holder.AcquiredAt.Format(time.RFC3339))
	}
}

func init() {
	dbForceUnlockCmd.Flags().BoolVar(&forceUnlockYes, "yes", false, "remove the lock even if it is fresh")
	dbCmd.AddCommand(dbSyncCmd, dbStatusCmd, dbForceUnlockCmd)
	rootCmd.AddCommand(dbCmd)
}
