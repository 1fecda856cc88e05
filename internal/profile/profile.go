// Package profile loads the candidate's profile document: the YAML file
// describing who they are, what they can do, and where they worked. The
// profile feeds the job analyzer and the portfolio site.
package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
)

// Profile is the parsed profile document.
type Profile struct {
	Name     string `yaml:"name"`
	Headline string `yaml:"headline,omitempty"`
	Email    string `yaml:"email,omitempty"`
	Location string `yaml:"location,omitempty"`
	Summary  string `yaml:"summary,omitempty"`

	Links map[string]string `yaml:"links,omitempty"` // e.g. github, site

	Skills      []schema.Skill      `yaml:"skills,omitempty"`
	Experiences []schema.Experience `yaml:"experiences,omitempty"`
}

// Validate checks the profile and everything nested in it.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	for i := range p.Skills {
		if err := p.Skills[i].Validate(); err != nil {
			return fmt.Errorf("skill %d: %w", i, err)
		}
	}
	for i := range p.Experiences {
		if err := p.Experiences[i].Validate(); err != nil {
			return fmt.Errorf("experience %d: %w", i, err)
		}
	}
	return nil
}

// Load reads and validates the profile document at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return &p, nil
}

// SkillNames returns the skill names in document order, for prompts and
// templates.
func (p *Profile) SkillNames() []string {
	names := make([]string, len(p.Skills))
	for i, s := range p.Skills {
		names[i] = s.Name
	}
	return names
}
