package schema

import (
	"fmt"
	"time"
)

// Job statuses, in rough pipeline order.
const (
	JobStatusDiscovered   = "discovered"
	JobStatusAnalyzed     = "analyzed"
	JobStatusApplied      = "applied"
	JobStatusInterviewing = "interviewing"
	JobStatusRejected     = "rejected"
	JobStatusOffer        = "offer"
)

// validJobStatuses is the closed set of statuses accepted by Validate.
var validJobStatuses = map[string]bool{
	JobStatusDiscovered:   true,
	JobStatusAnalyzed:     true,
	JobStatusApplied:      true,
	JobStatusInterviewing: true,
	JobStatusRejected:     true,
	JobStatusOffer:        true,
}

// Job is a job posting tracked through the application pipeline.
//
// FitScore and AnalysisNotes are written by the analyzer; they are zero
// until the posting has been analyzed.
type Job struct {
	ID       string `json:"id"`
	Company  string `json:"company"`
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Location string `json:"location,omitempty"`
	Source   string `json:"source,omitempty"` // board, referral, outreach
	Status   string `json:"status"`

	Description   string `json:"description,omitempty"`
	FitScore      int    `json:"fit_score,omitempty"` // 0-100, set by analysis
	AnalysisNotes string `json:"analysis_notes,omitempty"`

	PostedAt  *time.Time `json:"posted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Validate checks that the job has valid field values.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("id is required")
	}
	if j.Company == "" {
		return fmt.Errorf("company is required")
	}
	if j.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !validJobStatuses[j.Status] {
		return fmt.Errorf("invalid status %q", j.Status)
	}
	if j.FitScore < 0 || j.FitScore > 100 {
		return fmt.Errorf("fit score must be between 0 and 100 (got %d)", j.FitScore)
	}
	if j.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if j.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	return nil
}

// NewJobID builds the canonical job ID from company and a slug of the
// title plus the creation time, e.g. "acme/senior-gopher-20260812".
func NewJobID(company, slug string, createdAt time.Time) string {
	return fmt.Sprintf("%s/%s-%s", company, slug, createdAt.Format("20060102"))
}
