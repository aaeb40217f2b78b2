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
	"regexp"
	"strings"
)

var (
	// ErrInvalidInterviewID is returned when an interview ID format is invalid
	ErrInvalidInterviewID = errors.New("invalid interview ID")

	interviewIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// SanitizeLogInput removes line breaks so user-controlled text such as
// profile fields cannot forge extra log lines.
func SanitizeLogInput(input string) string {
	sanitized := strings.ReplaceAll(input, "\n", "")
	sanitized = strings.ReplaceAll(sanitized, "\r", "")
	return sanitized
}

// ValidateInterviewID accepts up to 64 ASCII letters, digits, dashes and
// underscores. Session IDs are UUIDs, which always pass.
func ValidateInterviewID(id string) error {
	if !interviewIDPattern.MatchString(id) {
		return ErrInvalidInterviewID
	}
	return nil
}
