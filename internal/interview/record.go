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

// Record is a point-in-time copy of a session, used for archiving and
// JSON output.
type Record struct {
	ID             string
	Profile        Profile
	State          State
	QuestionsAsked int
	Entries        []Entry
	Summary        string
	Evaluation     *Evaluation
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Record returns a snapshot that shares no mutable state with the session.
func (s *Session) Record() Record {
	rec := Record{
		ID:             s.id,
		Profile:        s.profile.WithDefaults(),
		State:          s.state,
		QuestionsAsked: s.questionsAsked,
		Entries:        s.Entries(),
		Summary:        s.summary,
		StartedAt:      s.startedAt,
		CompletedAt:    s.completedAt,
	}
	if s.evaluation != nil {
		ev := *s.evaluation
		rec.Evaluation = &ev
	}
	return rec
}

// Answers returns the answer entries in order.
func (r Record) Answers() []*Answer {
	var out []*Answer
	for _, e := range r.Entries {
		if a, ok := e.(*Answer); ok {
			out = append(out, a)
		}
	}
	return out
}

// TranscriptItem is the flat, serialisable form of an Entry.
type TranscriptItem struct {
	Kind      Kind      `json:"type"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	FocusArea string    `json:"focus_area,omitempty"`
	Number    int       `json:"number,omitempty"`
	Fallback  bool      `json:"fallback,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript flattens the entries for output.
func (r Record) Transcript() []TranscriptItem {
	items := make([]TranscriptItem, 0, len(r.Entries))
	for _, e := range r.Entries {
		item := TranscriptItem{
			Kind:      e.Kind(),
			Role:      e.Role(),
			Content:   e.Text(),
			Timestamp: e.Time(),
		}
		switch e := e.(type) {
		case *Question:
			item.FocusArea = e.FocusArea
			item.Number = e.Number
			item.Fallback = e.Fallback
		case *Introduction:
			item.Fallback = e.Fallback
		case *Answer:
		}
		items = append(items, item)
	}
	return items
}
