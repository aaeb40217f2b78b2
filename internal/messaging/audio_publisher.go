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
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loqalabs/loqa-interviewer/internal/logging"
)

// AudioMessage carries one complete synthesised question
type AudioMessage struct {
	StreamID       string `json:"stream_id"`
	SessionID      string `json:"session_id"`
	QuestionNumber int    `json:"question_number"`
	Text           string `json:"text"`
	AudioData      []byte `json:"audio_data"`
	AudioFormat    string `json:"audio_format"`
}

// AudioPublisher delivers question audio to players subscribed on
// "<prefix>.audio.<session id>".
type AudioPublisher struct {
	pub    Publisher
	prefix string
}

// NewAudioPublisher creates an audio publisher on pub
func NewAudioPublisher(pub Publisher, prefix string) *AudioPublisher {
	return &AudioPublisher{pub: pub, prefix: prefix}
}

// Subject returns the audio subject for a session
func (p *AudioPublisher) Subject(sessionID string) string {
	return subject(p.prefix, "audio."+sessionID)
}

// PublishQuestion sends the audio for one question as a single message
func (p *AudioPublisher) PublishQuestion(sessionID string, number int, text string, audio []byte, format string) error {
	if p == nil || p.pub == nil {
		return fmt.Errorf("NATS connection not established")
	}
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if len(audio) == 0 {
		return fmt.Errorf("no audio to publish")
	}

	msg := AudioMessage{
		StreamID:       uuid.NewString(),
		SessionID:      sessionID,
		QuestionNumber: number,
		Text:           text,
		AudioData:      audio,
		AudioFormat:    format,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal audio message: %w", err)
	}

	subj := p.Subject(sessionID)
	if err := p.pub.Publish(subj, data); err != nil {
		return fmt.Errorf("failed to publish audio file: %w", err)
	}

	logging.LogNATSEvent(subj, "audio_published",
		zap.String("stream_id", msg.StreamID),
		zap.Int("question", number),
		zap.Int("bytes", len(audio)),
	)
	return nil
}
