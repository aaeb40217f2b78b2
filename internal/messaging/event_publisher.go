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

package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/loqalabs/loqa-interviewer/internal/interview"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
)

// EventPublisher publishes interview lifecycle events as JSON on
// "<prefix>.<event type>", e.g. "interviewer.interview.started".
type EventPublisher struct {
	pub    Publisher
	prefix string
}

var _ interview.EventSink = (*EventPublisher)(nil)

// NewEventPublisher creates an event publisher on pub
func NewEventPublisher(pub Publisher, prefix string) *EventPublisher {
	return &EventPublisher{pub: pub, prefix: prefix}
}

// Subject returns the subject an event type is published on
func (p *EventPublisher) Subject(t interview.EventType) string {
	return subject(p.prefix, string(t))
}

// Publish implements interview.EventSink
func (p *EventPublisher) Publish(ctx context.Context, event interview.Event) error {
	if p == nil || p.pub == nil {
		return fmt.Errorf("NATS connection not established")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal interview event: %w", err)
	}

	subj := p.Subject(event.Type)
	if err := p.pub.Publish(subj, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subj, err)
	}

	logging.LogNATSEvent(subj, "published",
		zap.String("session_id", event.SessionID),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func subject(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
