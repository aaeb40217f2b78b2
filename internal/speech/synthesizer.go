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

package speech

import (
	"context"
	"strings"

	"github.com/loqalabs/loqa-interviewer/internal/config"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"go.uber.org/zap"
)

// SynthesisBackend turns text into encoded audio.
type SynthesisBackend interface {
	Synthesize(ctx context.Context, text, languageCode, voiceName string) ([]byte, error)
	Close() error
}

// Synthesizer never fails: empty input and backend errors yield nil audio
// so playback problems cannot stall the interview.
type Synthesizer struct {
	backend SynthesisBackend
	cfg     config.SynthesisConfig
}

// NewSynthesizer wires a backend with default language and voice.
func NewSynthesizer(backend SynthesisBackend, cfg config.SynthesisConfig) *Synthesizer {
	return &Synthesizer{backend: backend, cfg: cfg}
}

// Synthesize returns audio for text, or nil. Empty languageCode or
// voiceName fall back to the configured defaults.
func (s *Synthesizer) Synthesize(ctx context.Context, text, languageCode, voiceName string) []byte {
	if strings.TrimSpace(text) == "" || s == nil || s.backend == nil {
		return nil
	}
	if languageCode == "" {
		languageCode = s.cfg.LanguageCode
	}
	if voiceName == "" {
		voiceName = s.cfg.VoiceName
	}

	audioBytes, err := s.backend.Synthesize(ctx, text, languageCode, voiceName)
	if err != nil {
		logging.LogError(err, "TTS synthesis failed",
			zap.String("language", languageCode),
			zap.String("voice", voiceName),
			zap.Int("text_length", len(text)),
		)
		return nil
	}

	logging.LogTTSOperation("synthesize",
		zap.String("voice", voiceName),
		zap.Int("text_length", len(text)),
		zap.Int("audio_bytes", len(audioBytes)),
	)
	return audioBytes
}

// Close releases the backend.
func (s *Synthesizer) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
