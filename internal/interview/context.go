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
	"strings"
)

const (
	contextWindow    = 4
	contextAnswerMax = 200
	ellipsis         = "..."
)

// recentContext renders the last few question and answer entries for the
// question prompt. Long answers are cut to contextAnswerMax runes.
func recentContext(entries []Entry) string {
	start := len(entries) - contextWindow
	if start < 0 {
		start = 0
	}

	var parts []string
	for _, e := range entries[start:] {
		switch e := e.(type) {
		case *Question:
			parts = append(parts, "Previous Question: "+e.Text())
		case *Answer:
			parts = append(parts, "Candidate Response: "+truncateRunes(e.Text(), contextAnswerMax))
		case *Introduction:
		}
	}
	return strings.Join(parts, "\n")
}

// fullConversation renders every question and answer for the summary
// prompt, numbering questions in the order they were asked.
func fullConversation(entries []Entry) string {
	var parts []string
	n := 0
	for _, e := range entries {
		switch e := e.(type) {
		case *Question:
			n++
			parts = append(parts, fmt.Sprintf("Question %d: %s", n, e.Text()))
		case *Answer:
			parts = append(parts, "Answer: "+e.Text())
		case *Introduction:
		}
	}
	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + ellipsis
}
