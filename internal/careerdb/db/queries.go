package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
)

// executor is satisfied by both *sql.DB and *sql.Tx, so every query below
// works against a plain connection or inside a session transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries is the career data query surface, embedded in both DB and Tx.
type Queries struct {
	e executor
}

// UpsertJob inserts or updates a job. If a job with the same ID exists it
// is updated; analysis fields are carried by the incoming value.
func (q *Queries) UpsertJob(ctx context.Context, job *schema.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	query := `
	INSERT INTO jobs (
		id, company, title, url, location, source, status,
		description, fit_score, analysis_notes,
		posted_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		company = excluded.company,
		title = excluded.title,
		url = excluded.url,
		location = excluded.location,
		source = excluded.source,
		status = excluded.status,
		description = excluded.description,
		fit_score = excluded.fit_score,
		analysis_notes = excluded.analysis_notes,
		posted_at = excluded.posted_at,
		updated_at = excluded.updated_at
	`

	_, err := q.e.ExecContext(ctx, query,
		job.ID,
		job.Company,
		job.Title,
		job.URL,
		job.Location,
		job.Source,
		job.Status,
		job.Description,
		job.FitScore,
		job.AnalysisNotes,
		timeToNullString(job.PostedAt),
		job.CreatedAt.Format(time.RFC3339),
		job.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob returns the job with the given ID, or nil if it doesn't exist.
func (q *Queries) GetJob(ctx context.Context, id string) (*schema.Job, error) {
	rows, err := q.e.QueryContext(ctx, selectJobs+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query job %s: %w", id, err)
	}
	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0], nil
}

// ListJobsFilter narrows ListJobs results. Zero values mean "no filter".
type ListJobsFilter struct {
	Status      string
	Company     string
	MinFitScore int
	Limit       int
}

// ListJobs returns jobs matching the filter, best fit first.
func (q *Queries) ListJobs(ctx context.Context, filter ListJobsFilter) ([]*schema.Job, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Company != "" {
		conds = append(conds, "company = ?")
		args = append(args, filter.Company)
	}
	if filter.MinFitScore > 0 {
		conds = append(conds, "fit_score >= ?")
		args = append(args, filter.MinFitScore)
	}

	query := selectJobs
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY fit_score DESC, updated_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return scanJobs(rows)
}

// DeleteJob removes a job and, via cascade, its applications. Returns nil
// if the job doesn't exist (idempotent).
func (q *Queries) DeleteJob(ctx context.Context, id string) error {
	if _, err := q.e.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

// CountJobs returns the total number of tracked jobs.
func (q *Queries) CountJobs(ctx context.Context) (int, error) {
	var count int
	if err := q.e.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// SetJobAnalysis records the analyzer's verdict and advances the job to
// the analyzed status.
func (q *Queries) SetJobAnalysis(ctx context.Context, id string, fitScore int, notes string) error {
	if fitScore < 0 || fitScore > 100 {
		return fmt.Errorf("fit score must be between 0 and 100 (got %d)", fitScore)
	}

	result, err := q.e.ExecContext(ctx, `
		UPDATE jobs
		SET fit_score = ?, analysis_notes = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		fitScore, notes, schema.JobStatusAnalyzed, time.Now().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to record analysis for %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check analysis update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// UpsertSkill inserts or updates a skill by name.
func (q *Queries) UpsertSkill(ctx context.Context, skill *schema.Skill) error {
	if err := skill.Validate(); err != nil {
		return fmt.Errorf("invalid skill: %w", err)
	}

	_, err := q.e.ExecContext(ctx, `
	INSERT INTO skills (name, category, years, evidence)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		category = excluded.category,
		years = excluded.years,
		evidence = excluded.evidence`,
		skill.Name, skill.Category, skill.Years, skill.Evidence)
	if err != nil {
		return fmt.Errorf("failed to upsert skill %s: %w", skill.Name, err)
	}
	return nil
}

// ListSkills returns all skills, alphabetically.
func (q *Queries) ListSkills(ctx context.Context) ([]*schema.Skill, error) {
	rows, err := q.e.QueryContext(ctx,
		`SELECT name, category, years, evidence FROM skills ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var skills []*schema.Skill
	for rows.Next() {
		var (
			s        schema.Skill
			category sql.NullString
			evidence sql.NullString
		)
		if err := rows.Scan(&s.Name, &category, &s.Years, &evidence); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		s.Category = category.String
		s.Evidence = evidence.String
		skills = append(skills, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate skills: %w", err)
	}
	return skills, nil
}

// UpsertExperience inserts or updates an employment entry.
func (q *Queries) UpsertExperience(ctx context.Context, exp *schema.Experience) error {
	if err := exp.Validate(); err != nil {
		return fmt.Errorf("invalid experience: %w", err)
	}

	highlights, err := json.Marshal(exp.Highlights)
	if err != nil {
		return fmt.Errorf("failed to marshal highlights: %w", err)
	}

	_, err = q.e.ExecContext(ctx, `
	INSERT INTO experiences (id, employer, role, start_at, end_at, highlights)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		employer = excluded.employer,
		role = excluded.role,
		start_at = excluded.start_at,
		end_at = excluded.end_at,
		highlights = excluded.highlights`,
		exp.ID, exp.Employer, exp.Role,
		exp.Start.Format(time.RFC3339),
		timeToNullString(exp.End),
		string(highlights))
	if err != nil {
		return fmt.Errorf("failed to upsert experience %s: %w", exp.ID, err)
	}
	return nil
}

// ListExperiences returns all experiences, most recent first.
func (q *Queries) ListExperiences(ctx context.Context) ([]*schema.Experience, error) {
	rows, err := q.e.QueryContext(ctx, `
		SELECT id, employer, role, start_at, end_at, highlights
		FROM experiences ORDER BY start_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	var exps []*schema.Experience
	for rows.Next() {
		var (
			e          schema.Experience
			start      string
			end        sql.NullString
			highlights sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Employer, &e.Role, &start, &end, &highlights); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		e.Start, err = time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, fmt.Errorf("invalid start date for %s: %w", e.ID, err)
		}
		e.End = nullStringToTime(end)
		if highlights.Valid && highlights.String != "" {
			if err := json.Unmarshal([]byte(highlights.String), &e.Highlights); err != nil {
				return nil, fmt.Errorf("invalid highlights for %s: %w", e.ID, err)
			}
		}
		exps = append(exps, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate experiences: %w", err)
	}
	return exps, nil
}

// RecordApplication stores one submission for a job. The job must exist.
func (q *Queries) RecordApplication(ctx context.Context, app *schema.Application) error {
	if err := app.Validate(); err != nil {
		return fmt.Errorf("invalid application: %w", err)
	}

	_, err := q.e.ExecContext(ctx, `
	INSERT INTO applications (job_id, resume_version, cover_letter_key, channel, submitted_at)
	VALUES (?, ?, ?, ?, ?)`,
		app.JobID, app.ResumeVersion, app.CoverLetterKey, app.Channel,
		app.SubmittedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record application for %s: %w", app.JobID, err)
	}
	return nil
}

// ListApplications returns all submissions for a job, oldest first.
func (q *Queries) ListApplications(ctx context.Context, jobID string) ([]*schema.Application, error) {
	rows, err := q.e.QueryContext(ctx, `
		SELECT job_id, resume_version, cover_letter_key, channel, submitted_at
		FROM applications WHERE job_id = ? ORDER BY submitted_at`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for %s: %w", jobID, err)
	}
	defer rows.Close()

	var apps []*schema.Application
	for rows.Next() {
		var (
			a           schema.Application
			resume      sql.NullString
			coverLetter sql.NullString
			channel     sql.NullString
			submitted   string
		)
		if err := rows.Scan(&a.JobID, &resume, &coverLetter, &channel, &submitted); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		a.ResumeVersion = resume.String
		a.CoverLetterKey = coverLetter.String
		a.Channel = channel.String
		a.SubmittedAt, err = time.Parse(time.RFC3339, submitted)
		if err != nil {
			return nil, fmt.Errorf("invalid submitted_at for %s: %w", a.JobID, err)
		}
		apps = append(apps, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

const selectJobs = `
	SELECT id, company, title, url, location, source, status,
	       description, fit_score, analysis_notes,
	       posted_at, created_at, updated_at
	FROM jobs`

// scanJobs converts query rows into Job structs.
func scanJobs(rows *sql.Rows) ([]*schema.Job, error) {
	defer rows.Close()

	var jobs []*schema.Job
	for rows.Next() {
		var (
			j         schema.Job
			url       sql.NullString
			location  sql.NullString
			source    sql.NullString
			desc      sql.NullString
			notes     sql.NullString
			postedAt  sql.NullString
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(
			&j.ID, &j.Company, &j.Title, &url, &location, &source, &j.Status,
			&desc, &j.FitScore, &notes, &postedAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		j.URL = url.String
		j.Location = location.String
		j.Source = source.String
		j.Description = desc.String
		j.AnalysisNotes = notes.String
		j.PostedAt = nullStringToTime(postedAt)

		var err error
		j.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at for %s: %w", j.ID, err)
		}
		j.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid updated_at for %s: %w", j.ID, err)
		}

		jobs = append(jobs, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

// timeToNullString converts an optional time to a nullable RFC3339 string.
func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// nullStringToTime converts a nullable RFC3339 string back to a time.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
