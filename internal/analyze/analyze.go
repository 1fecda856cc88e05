// Package analyze scores job postings against the candidate's profile.
//
// The language model is consumed through a narrow contract: submit a
// prompt plus a response schema, receive a validated structured object or
// an error. Callers depend on the Analyzer interface; the Anthropic
// implementation is the production backend and tests substitute their own.
package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
	"github.com/jobdeck/jobdeck/internal/profile"
)

// JobAnalysis is the structured verdict for one posting.
type JobAnalysis struct {
	FitScore       int      `json:"fit_score"`
	MatchedSkills  []string `json:"matched_skills,omitempty"`
	MissingSkills  []string `json:"missing_skills,omitempty"`
	Summary        string   `json:"summary"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// Validate checks the model output against the schema the prompt asked
// for. Model responses are untrusted input.
func (a *JobAnalysis) Validate() error {
	if a.FitScore < 0 || a.FitScore > 100 {
		return fmt.Errorf("fit score out of range: %d", a.FitScore)
	}
	if a.Summary == "" {
		return fmt.Errorf("summary is required")
	}
	return nil
}

// Notes renders the analysis as the free-text notes stored on the job.
func (a *JobAnalysis) Notes() string {
	var b strings.Builder
	b.WriteString(a.Summary)
	if len(a.MatchedSkills) > 0 {
		fmt.Fprintf(&b, "\n\nMatched skills: %s", strings.Join(a.MatchedSkills, ", "))
	}
	if len(a.MissingSkills) > 0 {
		fmt.Fprintf(&b, "\nMissing skills: %s", strings.Join(a.MissingSkills, ", "))
	}
	if a.Recommendation != "" {
		fmt.Fprintf(&b, "\n\nRecommendation: %s", a.Recommendation)
	}
	return b.String()
}

// Analyzer scores a job posting against a profile.
type Analyzer interface {
	AnalyzeJob(ctx context.Context, job *schema.Job, prof *profile.Profile) (*JobAnalysis, error)
}

// buildPrompt assembles the user prompt from the posting and the profile.
func buildPrompt(job *schema.Job, prof *profile.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate: %s", prof.Name)
	if prof.Headline != "" {
		fmt.Fprintf(&b, " (%s)", prof.Headline)
	}
	b.WriteString("\n")
	if prof.Summary != "" {
		fmt.Fprintf(&b, "Background: %s\n", prof.Summary)
	}
	if len(prof.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(prof.SkillNames(), ", "))
	}
	for _, exp := range prof.Experiences {
		fmt.Fprintf(&b, "Experience: %s at %s", exp.Role, exp.Employer)
		if len(exp.Highlights) > 0 {
			fmt.Fprintf(&b, " - %s", strings.Join(exp.Highlights, "; "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nJob posting: %s at %s", job.Title, job.Company)
	if job.Location != "" {
		fmt.Fprintf(&b, " (%s)", job.Location)
	}
	b.WriteString("\n")
	if job.Description != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", job.Description)
	}

	return b.String()
}

const systemPrompt = `You evaluate how well a candidate matches a job posting.
Base every claim only on the provided text; do not invent experience the
candidate did not list. Record your verdict with the provided tool.`
