package analyze

import (
	"context"
	"fmt"

	"github.com/jobdeck/jobdeck/internal/careerdb/db"
	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
	"github.com/jobdeck/jobdeck/internal/careerdb/session"
	"github.com/jobdeck/jobdeck/internal/profile"
)

// RecordAnalysis scores one job and stores the verdict on it.
//
// The model call runs between two short sessions, not inside one: a slow
// or hung response while holding the coordination lock would let a waiter
// cross the staleness threshold and break a live lock. So the job is read
// under the lock, analyzed with the lock released, and the verdict is
// written in a second session. If the job disappears between the two
// sessions the write fails rather than resurrecting it.
func RecordAnalysis(ctx context.Context, mgr *session.Manager, a Analyzer, prof *profile.Profile, jobID string) (*JobAnalysis, error) {
	job, err := readJob(ctx, mgr, jobID)
	if err != nil {
		return nil, err
	}

	analysis, err := a.AnalyzeJob(ctx, job, prof)
	if err != nil {
		return nil, err
	}

	err = mgr.With(ctx, func(tx *db.Tx) error {
		return tx.SetJobAnalysis(ctx, jobID, analysis.FitScore, analysis.Notes())
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// readJob pulls the latest snapshot under the lock and reads the job from
// the local copy after the lock is released.
func readJob(ctx context.Context, mgr *session.Manager, jobID string) (*schema.Job, error) {
	if err := mgr.SyncDB(ctx); err != nil {
		return nil, err
	}

	database, err := db.Open(mgr.LocalPath())
	if err != nil {
		return nil, err
	}
	defer database.Close()

	if err := database.InitSchema(ctx); err != nil {
		return nil, err
	}

	job, err := database.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	return job, nil
}
