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

import "time"

// Kind tags a transcript entry.
type Kind string

const (
	KindIntroduction Kind = "introduction"
	KindQuestion     Kind = "question"
	KindAnswer       Kind = "answer"
)

// Role is the chat role of whoever produced an entry.
type Role string

const (
	RoleInterviewer Role = "assistant"
	RoleCandidate   Role = "user"
)

// EmptyContent is rendered in place of an entry with no text.
const EmptyContent = "[no content]"

// Entry is one item of the interview transcript. The set of implementations
// is closed: *Introduction, *Question and *Answer.
type Entry interface {
	Kind() Kind
	Role() Role
	// Text returns the entry content, or EmptyContent when there is none.
	Text() string
	Time() time.Time
	clone() Entry
}

// Introduction is the interviewer's opening statement.
type Introduction struct {
	Content  string
	Fallback bool
	At       time.Time
}

func (e *Introduction) Kind() Kind      { return KindIntroduction }
func (e *Introduction) Role() Role      { return RoleInterviewer }
func (e *Introduction) Text() string    { return textOrPlaceholder(e.Content) }
func (e *Introduction) Time() time.Time { return e.At }
func (e *Introduction) clone() Entry    { c := *e; return &c }

// Question is an interviewer question. Number is its 1-based position.
type Question struct {
	Content   string
	FocusArea string
	Number    int
	Fallback  bool
	At        time.Time
}

func (e *Question) Kind() Kind      { return KindQuestion }
func (e *Question) Role() Role      { return RoleInterviewer }
func (e *Question) Text() string    { return textOrPlaceholder(e.Content) }
func (e *Question) Time() time.Time { return e.At }
func (e *Question) clone() Entry    { c := *e; return &c }

// Answer is a candidate response, stored trimmed.
type Answer struct {
	Content string
	At      time.Time
}

func (e *Answer) Kind() Kind      { return KindAnswer }
func (e *Answer) Role() Role      { return RoleCandidate }
func (e *Answer) Text() string    { return textOrPlaceholder(e.Content) }
func (e *Answer) Time() time.Time { return e.At }
func (e *Answer) clone() Entry    { c := *e; return &c }

// FocusArea returns the focus area of a question entry and "" for anything else.
func FocusArea(e Entry) string {
	if q, ok := e.(*Question); ok {
		return q.FocusArea
	}
	return ""
}

func textOrPlaceholder(s string) string {
	if s == "" {
		return EmptyContent
	}
	return s
}
