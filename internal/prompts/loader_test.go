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
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestDefault_ContainsRequiredKeys(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	required := []string{
		"introduction.system", "introduction.user",
		"question.system", "question.user",
		"rephrase.system", "rephrase.user",
		"summary.system", "summary.user", "summary.no_responses",
		"fallback.introduction", "fallback.summary",
		"fallback.question.technical_skills", "fallback.question.problem_solving",
		"fallback.question.communication", "fallback.question.experience",
		"fallback.question.motivation", "fallback.question.generic",
	}
	for i := 1; i <= 10; i++ {
		required = append(required, "fallback.question."+strconv.Itoa(i))
	}

	for _, key := range required {
		if _, ok := set[key]; !ok {
			t.Errorf("default templates missing %q", key)
		}
	}

	if got := set["summary.no_responses"]; got != "No responses were recorded during the interview." {
		t.Errorf("summary.no_responses = %q", got)
	}
	if strings.Contains(set["fallback.introduction"], "\n") {
		t.Error("fallback.introduction should be a single line")
	}
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := "fallback:\n  question:\n    generic: Tell me about yourself.\ncustom:\n  greeting: hi\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write override: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if set["fallback.question.generic"] != "Tell me about yourself." {
		t.Errorf("override not applied: %q", set["fallback.question.generic"])
	}
	if set["custom.greeting"] != "hi" {
		t.Errorf("custom.greeting = %q, want %q", set["custom.greeting"], "hi")
	}
	if _, ok := set["question.system"]; !ok {
		t.Error("defaults lost after override")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("question:\n  system: [1, 2]\n"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with non-text template should fail")
	}
}

func TestSet_Keys(t *testing.T) {
	keys := Set{"b": "", "a": "", "c": ""}.Keys()
	if strings.Join(keys, ",") != "a,b,c" {
		t.Errorf("Keys() = %v, want sorted", keys)
	}
}
