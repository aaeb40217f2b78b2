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

package prompts

import (
	"errors"
	"testing"
)

func TestRender(t *testing.T) {
	config := map[string]any{
		"position":        "Backend Engineer",
		"company":         "Loqa Labs",
		"required_skills": []string{"Go", "SQL", "Kubernetes"},
		"focus_areas":     []any{"technical_skills", "communication"},
		"question_count":  5,
		"team": map[string]any{
			"name": "Platform",
			"size": 7,
		},
	}

	tests := []struct {
		name     string
		template string
		vars     Vars
		want     string
	}{
		{"scalar with default, present", "Role: <cfg:position,unknown>", nil, "Role: Backend Engineer"},
		{"scalar with default, missing", "Desc: <cfg:job_description,Not provided>", nil, "Desc: Not provided"},
		{"scalar with empty default", "[<cfg:missing,>]", nil, "[]"},
		{"list join", "Skills: <cfg-join:required_skills>", nil, "Skills: Go, SQL, Kubernetes"},
		{"list join of generic list", "<cfg-join:focus_areas>", nil, "technical_skills, communication"},
		{"list join of scalar stringifies", "<cfg-join:question_count>", nil, "5"},
		{"plain scalar", "<cfg:company>", nil, "Loqa Labs"},
		{"plain scalar missing", "[<cfg:nothing>]", nil, "[]"},
		{"plain scalar list is joined", "<cfg:required_skills>", nil, "Go, SQL, Kubernetes"},
		{"dotted lookup", "<cfg:team.name> (<cfg:team.size>)", nil, "Platform (7)"},
		{"dotted lookup missing leaf", "<cfg:team.lead,nobody>", nil, "nobody"},
		{"call variable", "Question <n> of <max>", Vars{"n": 2, "max": 5}, "Question 2 of 5"},
		{"unknown variable left literal", "Hello <name>", Vars{"other": "x"}, "Hello <name>"},
		{"no vars leaves placeholders", "Hello <name>", nil, "Hello <name>"},
		{"unclosed bracket", "a < b", nil, "a < b"},
		{"placeholder after stray bracket", "x < <cfg:company>", nil, "x < Loqa Labs"},
		{
			"substituted values are not rescanned",
			"Answer: <answer>",
			Vars{"answer": "I wrote <cfg:company> and <n>"},
			"Answer: I wrote <cfg:company> and <n>",
		},
		{"variable named like config is still a variable", "<position>", Vars{"position": "override"}, "override"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.template, config, tt.vars)
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestEngine_Resolve(t *testing.T) {
	engine := NewEngine(Set{"greeting": "Hi <cfg:name,there>, <topic>"}, map[string]any{"name": "Ada"})

	got, err := engine.Resolve("greeting", Vars{"topic": "welcome"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "Hi Ada, welcome" {
		t.Errorf("Resolve() = %q, want %q", got, "Hi Ada, welcome")
	}

	_, err = engine.Resolve("missing", nil)
	var notFound *TemplateNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Resolve(missing) error = %v, want TemplateNotFoundError", err)
	}
	if notFound.Key != "missing" {
		t.Errorf("TemplateNotFoundError.Key = %q, want %q", notFound.Key, "missing")
	}
}

func TestEngine_NilConfig(t *testing.T) {
	engine := NewEngine(Set{"t": "<cfg:a,b>"}, nil)
	got, err := engine.Resolve("t", nil)
	if err != nil || got != "b" {
		t.Errorf("Resolve() = %q, %v, want %q, nil", got, err, "b")
	}
	if !engine.Has("t") || engine.Has("u") {
		t.Error("Has() reported wrong membership")
	}
}
