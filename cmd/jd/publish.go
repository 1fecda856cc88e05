package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobdeck/jobdeck/internal/careerdb/db"
	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
	"github.com/jobdeck/jobdeck/internal/careerdb/session"
	"github.com/jobdeck/jobdeck/internal/config"
	"github.com/jobdeck/jobdeck/internal/profile"
	"github.com/jobdeck/jobdeck/internal/site"
	"github.com/jobdeck/jobdeck/internal/ui"
)

var publishWatch bool

var publishCmd = &cobra.Command{
	Use:     "publish",
	GroupID: "pipeline",
	Short:   "Publish the portfolio site",
	Long: `Render the portfolio site from the profile and the tracked jobs
and upload the pages to the object store.

With --watch, stay running and republish whenever the profile file
changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := newLogger(cfg)
		mgr, store := newSession(cfg, logger)
		builder := site.NewBuilder(store, cfg.SitePrefix, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := publishOnce(ctx, cfg, mgr, builder); err != nil {
			fatal(err)
		}
		if !publishWatch {
			return
		}

		if err := watchAndPublish(ctx, cfg, mgr, builder); err != nil {
			fatal(err)
		}
	},
}

// publishOnce pulls the current data and uploads a fresh render.
func publishOnce(ctx context.Context, cfg *config.Config, mgr *session.Manager, builder *site.Builder) error {
	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return err
	}

	jobs, err := loadJobs(ctx, mgr)
	if err != nil {
		return err
	}

	n, err := builder.Publish(ctx, prof, jobs)
	if err != nil {
		return err
	}
	fmt.Printf("%s Published %d pages under %s\n", ui.RenderPass("✓"), n, cfg.SitePrefix)
	return nil
}

// loadJobs pulls the latest snapshot and reads every job.
func loadJobs(ctx context.Context, mgr *session.Manager) ([]*schema.Job, error) {
	database, err := openSyncedDB(ctx, mgr)
	if err != nil {
		return nil, err
	}
	defer database.Close()
	return database.ListJobs(ctx, db.ListJobsFilter{})
}

// watchAndPublish republishes on every profile change until ctx ends.
func watchAndPublish(ctx context.Context, cfg *config.Config, mgr *session.Manager, builder *site.Builder) error {
	w, err := profile.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Start(cfg.ProfilePath); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("%s Watching %s (Ctrl-C to stop)\n", ui.RenderAccent("👁"), cfg.ProfilePath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			return fmt.Errorf("profile watcher: %w", err)
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Removed {
				fmt.Printf("%s Profile removed; waiting for it to come back\n", ui.RenderWarn("⚠"))
				continue
			}
			if err := publishOnce(ctx, cfg, mgr, builder); err != nil {
				// A broken intermediate save should not kill the watch.
				fmt.Printf("%s Publish failed: %v\n", ui.RenderWarn("⚠"), err)
			}
		}
	}
}

func init() {
	publishCmd.Flags().BoolVar(&publishWatch, "watch", false, "republish on profile changes")
	rootCmd.AddCommand(publishCmd)
}
