package db

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "career_data.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return database
}

func testJob(id, company, title string) *schema.Job {
	now := time.Now().UTC().Truncate(time.Second)
	return &schema.Job{
		ID:        id,
		Company:   company,
		Title:     title,
		Status:    schema.JobStatusDiscovered,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUpsertAndGetJob(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	job := testJob("acme/gopher-20260812", "acme", "Gopher")
	job.URL = "https://acme.example/jobs/1"
	job.Location = "Remote"

	if err := database.UpsertJob(ctx, job); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}

	got, err := database.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got == nil {
		t.Fatal("job not found after upsert")
	}
	if got.Company != "acme" || got.Title != "Gopher" || got.URL != job.URL {
		t.Errorf("job fields mismatch: %+v", got)
	}

	// Upserting the same ID updates in place.
	job.Title = "Senior Gopher"
	if err := database.UpsertJob(ctx, job); err != nil {
		t.Fatalf("UpsertJob (update) failed: %v", err)
	}
	got, err = database.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Title != "Senior Gopher" {
		t.Errorf("expected updated title, got %q", got.Title)
	}

	count, err := database.CountJobs(ctx)
	if err != nil {
		t.Fatalf("CountJobs failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 job, got %d", count)
	}
}

func TestGetMissingJob(t *testing.T) {
	database := setupTestDB(t)

	got, err := database.GetJob(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing job, got %+v", got)
	}
}

func TestListJobsFilter(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	a := testJob("acme/one", "acme", "One")
	b := testJob("acme/two", "acme", "Two")
	b.Status = schema.JobStatusApplied
	c := testJob("globex/three", "globex", "Three")
	c.FitScore = 80
	c.Status = schema.JobStatusAnalyzed

	for _, job := range []*schema.Job{a, b, c} {
		if err := database.UpsertJob(ctx, job); err != nil {
			t.Fatalf("UpsertJob failed: %v", err)
		}
	}

	jobs, err := database.ListJobs(ctx, ListJobsFilter{Company: "acme"})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("expected 2 acme jobs, got %d", len(jobs))
	}

	jobs, err = database.ListJobs(ctx, ListJobsFilter{MinFitScore: 50})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "globex/three" {
		t.Errorf("fit score filter returned %v", jobs)
	}

	jobs, err = database.ListJobs(ctx, ListJobsFilter{Status: schema.JobStatusApplied})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "acme/two" {
		t.Errorf("status filter returned %v", jobs)
	}
}

func TestDeleteJobIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	if err := database.UpsertJob(ctx, testJob("acme/x", "acme", "X")); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}
	if err := database.DeleteJob(ctx, "acme/x"); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if err := database.DeleteJob(ctx, "acme/x"); err != nil {
		t.Fatalf("second DeleteJob failed: %v", err)
	}
}

func TestSetJobAnalysis(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	if err := database.UpsertJob(ctx, testJob("acme/x", "acme", "X")); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}

	if err := database.SetJobAnalysis(ctx, "acme/x", 72, "good match on Go, weak on k8s"); err != nil {
		t.Fatalf("SetJobAnalysis failed: %v", err)
	}

	got, err := database.GetJob(ctx, "acme/x")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.FitScore != 72 || got.Status != schema.JobStatusAnalyzed {
		t.Errorf("analysis not recorded: %+v", got)
	}
	if !strings.Contains(got.AnalysisNotes, "good match") {
		t.Errorf("analysis notes not stored: %q", got.AnalysisNotes)
	}

	if err := database.SetJobAnalysis(ctx, "missing", 50, ""); err == nil {
		t.Error("expected error for missing job")
	}
	if err := database.SetJobAnalysis(ctx, "acme/x", 101, ""); err == nil {
		t.Error("expected error for out-of-range score")
	}
}

func TestSkillsRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	skills := []*schema.Skill{
		{Name: "Go", Category: "language", Years: 6},
		{Name: "SQLite", Category: "storage", Years: 4, Evidence: "built the careerdb sync layer"},
	}
	for _, s := range skills {
		if err := database.UpsertSkill(ctx, s); err != nil {
			t.Fatalf("UpsertSkill failed: %v", err)
		}
	}

	got, err := database.ListSkills(ctx)
	if err != nil {
		t.Fatalf("ListSkills failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(got))
	}
	if got[0].Name != "Go" || got[1].Name != "SQLite" {
		t.Errorf("unexpected skill order: %v, %v", got[0].Name, got[1].Name)
	}
	if got[1].Evidence == "" {
		t.Error("evidence not persisted")
	}
}

func TestExperiencesRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	exp := &schema.Experience{
		ID:         "initech-2021",
		Employer:   "initech",
		Role:       "Backend Engineer",
		Start:      start,
		End:        &end,
		Highlights: []string{"built the TPS pipeline", "cut report latency 10x"},
	}
	if err := database.UpsertExperience(ctx, exp); err != nil {
		t.Fatalf("UpsertExperience failed: %v", err)
	}

	got, err := database.ListExperiences(ctx)
	if err != nil {
		t.Fatalf("ListExperiences failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 experience, got %d", len(got))
	}
	if !got[0].Start.Equal(start) || got[0].End == nil || !got[0].End.Equal(end) {
		t.Errorf("dates mismatch: %+v", got[0])
	}
	if len(got[0].Highlights) != 2 {
		t.Errorf("highlights not persisted: %v", got[0].Highlights)
	}
}

func TestApplicationsCascadeWithJob(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	if err := database.UpsertJob(ctx, testJob("acme/x", "acme", "X")); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}

	app := &schema.Application{
		JobID:          "acme/x",
		ResumeVersion:  "v3",
		CoverLetterKey: "letters/acme-x.pdf",
		Channel:        "portal",
		SubmittedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := database.RecordApplication(ctx, app); err != nil {
		t.Fatalf("RecordApplication failed: %v", err)
	}

	apps, err := database.ListApplications(ctx, "acme/x")
	if err != nil {
		t.Fatalf("ListApplications failed: %v", err)
	}
	if len(apps) != 1 || apps[0].CoverLetterKey != "letters/acme-x.pdf" {
		t.Errorf("unexpected applications: %+v", apps)
	}

	// Deleting the job removes its applications.
	if err := database.DeleteJob(ctx, "acme/x"); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	apps, err = database.ListApplications(ctx, "acme/x")
	if err != nil {
		t.Fatalf("ListApplications failed: %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("applications survived job deletion: %+v", apps)
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	tx, err := database.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := tx.UpsertJob(ctx, testJob("acme/committed", "acme", "C")); err != nil {
		t.Fatalf("UpsertJob in tx failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	tx, err = database.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := tx.UpsertJob(ctx, testJob("acme/rolled-back", "acme", "R")); err != nil {
		t.Fatalf("UpsertJob in tx failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	count, err := database.CountJobs(ctx)
	if err != nil {
		t.Fatalf("CountJobs failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected only the committed job, got %d", count)
	}
	got, err := database.GetJob(ctx, "acme/rolled-back")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got != nil {
		t.Error("rolled-back job is visible")
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	input := `{"id":"acme/one","company":"acme","title":"One"}
{"id":"globex/two","company":"globex","title":"Two","status":"applied","fit_score":65}
`
	n, err := database.ImportJSONL(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportJSONL failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported jobs, got %d", n)
	}

	// Defaults applied to the sparse record.
	got, err := database.GetJob(ctx, "acme/one")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != schema.JobStatusDiscovered {
		t.Errorf("expected default status, got %q", got.Status)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected default created_at")
	}

	var out bytes.Buffer
	n, err = database.ExportJSONL(ctx, &out)
	if err != nil {
		t.Fatalf("ExportJSONL failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 exported jobs, got %d", n)
	}
	if lines := strings.Count(out.String(), "\n"); lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestCloseLeavesCompleteMainFile(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "career_data.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := database.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	if err := database.UpsertJob(ctx, testJob("acme/gopher", "acme", "Gopher")); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A nil Close means the main file alone is the whole database: copy
	// it without any sidecars and the committed row must be there.
	copyPath := filepath.Join(t.TempDir(), "career_data.db")
	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("failed to read database file: %v", err)
	}
	if err := os.WriteFile(copyPath, data, 0o644); err != nil {
		t.Fatalf("failed to write copy: %v", err)
	}

	reopened, err := Open(copyPath)
	if err != nil {
		t.Fatalf("failed to open copied database: %v", err)
	}
	defer reopened.Close()

	job, err := reopened.GetJob(ctx, "acme/gopher")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job == nil {
		t.Fatal("committed row missing from the main file after Close")
	}
}

func TestCloseReportsCheckpointFailure(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "career_data.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Kill the connection underneath so the checkpoint cannot run.
	if err := database.RawDB().Close(); err != nil {
		t.Fatalf("failed to close raw connection: %v", err)
	}

	if err := database.Close(); err == nil {
		t.Fatal("expected Close to report the failed checkpoint")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "career_data.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
