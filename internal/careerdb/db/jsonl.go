package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
)

// ImportJSONL reads jobs from a JSON-lines stream and upserts each one.
// Missing statuses and timestamps get defaults so hand-edited exports and
// scraper output both import cleanly. Returns the number of jobs imported.
func (q *Queries) ImportJSONL(ctx context.Context, r io.Reader) (int, error) {
	decoder := json.NewDecoder(r)
	count := 0

	for {
		var job schema.Job
		if err := decoder.Decode(&job); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return count, fmt.Errorf("invalid JSON at record %d: %w", count+1, err)
		}

		setJobDefaults(&job)
		if err := q.UpsertJob(ctx, &job); err != nil {
			return count, fmt.Errorf("failed to import job %s: %w", job.ID, err)
		}
		count++
	}

	return count, nil
}

// ExportJSONL writes every job as one JSON object per line. Returns the
// number of jobs written.
func (q *Queries) ExportJSONL(ctx context.Context, w io.Writer) (int, error) {
	jobs, err := q.ListJobs(ctx, ListJobsFilter{})
	if err != nil {
		return 0, err
	}

	encoder := json.NewEncoder(w)
	for i, job := range jobs {
		if err := encoder.Encode(job); err != nil {
			return i, fmt.Errorf("failed to encode job %s: %w", job.ID, err)
		}
	}
	return len(jobs), nil
}

// setJobDefaults fills fields that scraped or hand-written records
// commonly omit.
func setJobDefaults(job *schema.Job) {
	now := time.Now()
	if job.Status == "" {
		job.Status = schema.JobStatusDiscovered
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
}
