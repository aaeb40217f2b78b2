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
	"context"
	"time"
)

// EventType names a session lifecycle event.
type EventType string

const (
	EventStarted   EventType = "interview.started"
	EventQuestion  EventType = "interview.question"
	EventAnswer    EventType = "interview.answer"
	EventCompleted EventType = "interview.completed"
)

// Event is published to an EventSink on every session transition.
type Event struct {
	Type           EventType `json:"type"`
	SessionID      string    `json:"session_id"`
	Position       string    `json:"position,omitempty"`
	QuestionNumber int       `json:"question_number,omitempty"`
	MaxQuestions   int       `json:"max_questions,omitempty"`
	FocusArea      string    `json:"focus_area,omitempty"`
	Content        string    `json:"content,omitempty"`
	Fallback       bool      `json:"fallback,omitempty"`
	Score          *int      `json:"score,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// EventSink receives lifecycle events. Errors are logged by the session and
// never change its state.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event Event) error

func (f EventSinkFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}
