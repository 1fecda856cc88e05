package schema

import (
	"fmt"
	"time"
)

// Skill is a single candidate skill with supporting evidence, used by the
// analyzer when scoring postings and by the portfolio site.
type Skill struct {
	Name     string  `json:"name" yaml:"name"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`
	Years    float64 `json:"years,omitempty" yaml:"years,omitempty"`
	Evidence string  `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// Validate checks that the skill has valid field values.
func (s *Skill) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("skill name is required")
	}
	if s.Years < 0 {
		return fmt.Errorf("years cannot be negative (got %g)", s.Years)
	}
	return nil
}

// Experience is one employment entry on the candidate's profile.
type Experience struct {
	ID         string     `json:"id" yaml:"id"`
	Employer   string     `json:"employer" yaml:"employer"`
	Role       string     `json:"role" yaml:"role"`
	Start      time.Time  `json:"start" yaml:"start"`
	End        *time.Time `json:"end,omitempty" yaml:"end,omitempty"` // nil = current
	Highlights []string   `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

// Validate checks that the experience has valid field values.
func (e *Experience) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if e.Employer == "" {
		return fmt.Errorf("employer is required")
	}
	if e.Role == "" {
		return fmt.Errorf("role is required")
	}
	if e.Start.IsZero() {
		return fmt.Errorf("start date is required")
	}
	if e.End != nil && e.End.Before(e.Start) {
		return fmt.Errorf("end date precedes start date")
	}
	return nil
}

// Application records one submission of materials for a job.
type Application struct {
	JobID          string    `json:"job_id"`
	ResumeVersion  string    `json:"resume_version,omitempty"`
	CoverLetterKey string    `json:"cover_letter_key,omitempty"` // object store key of the rendered letter
	Channel        string    `json:"channel,omitempty"`          // portal, email, referral
	SubmittedAt    time.Time `json:"submitted_at"`
}

// Validate checks that the application has valid field values.
func (a *Application) Validate() error {
	if a.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if a.SubmittedAt.IsZero() {
		return fmt.Errorf("submitted_at is required")
	}
	return nil
}
