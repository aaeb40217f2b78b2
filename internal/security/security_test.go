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

package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSanitizeLogInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Clean input", "Backend Engineer", "Backend Engineer"},
		{"CRLF sequence", "line1\r\nline2", "line1line2"},
		{"Mixed line endings", "a\nb\rc\r\nd", "abcd"},
		{"Log injection attempt", "Engineer\nERROR: fake error message", "EngineerERROR: fake error message"},
		{"Unicode characters preserved", "Ingénieur 世界\n", "Ingénieur 世界"},
		{"Empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeLogInput(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeLogInput(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if strings.ContainsAny(result, "\r\n") {
				t.Errorf("SanitizeLogInput(%q) still contains line breaks: %q", tt.input, result)
			}
		})
	}
}

func TestValidateInterviewID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"UUID", uuid.NewString(), true},
		{"Custom", "interview_42", true},
		{"Empty", "", false},
		{"Path traversal", "../etc/passwd", false},
		{"SQL-ish", "x' OR '1'='1", false},
		{"Too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInterviewID(tt.id)
			if tt.valid && err != nil {
				t.Errorf("ValidateInterviewID(%q) = %v, want nil", tt.id, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidInterviewID) {
				t.Errorf("ValidateInterviewID(%q) = %v, want ErrInvalidInterviewID", tt.id, err)
			}
		})
	}
}
