package schema

import (
	"testing"
	"time"
)

func validJob() *Job {
	now := time.Now()
	return &Job{
		ID:        "acme/senior-gopher-20260812",
		Company:   "acme",
		Title:     "Senior Gopher",
		Status:    JobStatusDiscovered,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestJobValidate(t *testing.T) {
	if err := validJob().Validate(); err != nil {
		t.Errorf("valid job failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Job)
	}{
		{"missing id", func(j *Job) { j.ID = "" }},
		{"missing company", func(j *Job) { j.Company = "" }},
		{"missing title", func(j *Job) { j.Title = "" }},
		{"bad status", func(j *Job) { j.Status = "daydreaming" }},
		{"fit score too high", func(j *Job) { j.FitScore = 101 }},
		{"fit score negative", func(j *Job) { j.FitScore = -1 }},
		{"zero created_at", func(j *Job) { j.CreatedAt = time.Time{} }},
		{"zero updated_at", func(j *Job) { j.UpdatedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := validJob()
			tt.mutate(job)
			if err := job.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewJobID(t *testing.T) {
	created := time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)
	id := NewJobID("acme", "senior-gopher", created)
	if id != "acme/senior-gopher-20260812" {
		t.Errorf("unexpected job ID: %s", id)
	}
}

func TestExperienceValidate(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(-1, 0, 0)

	exp := &Experience{ID: "acme-2020", Employer: "acme", Role: "engineer", Start: start, End: &end}
	if err := exp.Validate(); err == nil {
		t.Error("expected error for end date before start date")
	}

	exp.End = nil
	if err := exp.Validate(); err != nil {
		t.Errorf("current role (nil end) failed validation: %v", err)
	}
}
