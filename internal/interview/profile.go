/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package interview

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultQuestionCount = 5
	// skillsHeadSize is how many required skills the technical fallback question names.
	skillsHeadSize   = 2
	defaultSkillHead = "the required technologies"
)

// DefaultFocusAreas apply when a profile does not list any.
var DefaultFocusAreas = []string{"technical_skills", "communication"}

// Profile describes the role being interviewed for. It is read once at
// session creation and never modified afterwards.
type Profile struct {
	Position       string         `yaml:"position" json:"position"`
	Company        string         `yaml:"company" json:"company"`
	JobDescription string         `yaml:"job_description" json:"job_description"`
	RequiredSkills []string       `yaml:"required_skills" json:"required_skills"`
	FocusAreas     []string       `yaml:"focus_areas" json:"focus_areas"`
	QuestionCount  int            `yaml:"question_count" json:"question_count"`
	Extra          map[string]any `yaml:"extra" json:"extra"`
}

// LoadProfile reads a YAML or JSON profile document and applies defaults.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML or JSON profile document and applies defaults.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// WithDefaults returns a copy of p with missing fields filled in. A nil
// focus-area list gets the defaults; an explicitly empty list is kept and
// selects numbered fallback questions instead of per-area ones.
func (p Profile) WithDefaults() Profile {
	if p.QuestionCount == 0 {
		p.QuestionCount = DefaultQuestionCount
	}
	if p.FocusAreas == nil {
		p.FocusAreas = append([]string(nil), DefaultFocusAreas...)
	} else {
		p.FocusAreas = append([]string{}, p.FocusAreas...)
	}
	if p.RequiredSkills != nil {
		p.RequiredSkills = append([]string{}, p.RequiredSkills...)
	}
	return p
}

// Validate checks the profile after defaults have been applied.
func (p Profile) Validate() error {
	if p.QuestionCount <= 0 {
		return fmt.Errorf("question_count must be positive, got %d", p.QuestionCount)
	}
	for i, area := range p.FocusAreas {
		if strings.TrimSpace(area) == "" {
			return fmt.Errorf("focus area %d is empty", i)
		}
	}
	return nil
}

// SingleTemplate reports whether the profile uses the numbered fallback
// questions rather than focus-area rotation.
func (p Profile) SingleTemplate() bool {
	return len(p.FocusAreas) == 0
}

// Values returns the configuration mapping used for <cfg:...> placeholders.
// Empty strings are left out so template defaults apply.
func (p Profile) Values() map[string]any {
	values := make(map[string]any, len(p.Extra)+6)
	for k, v := range p.Extra {
		values[k] = v
	}
	setString := func(key, value string) {
		if value != "" {
			values[key] = value
		}
	}
	setString("position", p.Position)
	setString("company", p.Company)
	setString("job_description", p.JobDescription)
	values["required_skills"] = append([]string{}, p.RequiredSkills...)
	values["focus_areas"] = append([]string{}, p.FocusAreas...)
	values["question_count"] = p.QuestionCount
	return values
}

// skillsHead names the first few required skills for the technical fallback question.
func (p Profile) skillsHead() string {
	if len(p.RequiredSkills) == 0 {
		return defaultSkillHead
	}
	head := p.RequiredSkills
	if len(head) > skillsHeadSize {
		head = head[:skillsHeadSize]
	}
	return strings.Join(head, ", ")
}
