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

	"github.com/loqalabs/loqa-interviewer/internal/audio"
	"github.com/loqalabs/loqa-interviewer/internal/diagnostics"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"go.uber.org/zap"
)

// minAudioBytes is the size of a bare WAV header.
const minAudioBytes = 44

// Transcriber runs raw client audio through normalization and recognition.
type Transcriber struct {
	normalizer  *audio.Normalizer
	recognizer  *Recognizer
	diagnostics *diagnostics.Store
}

// NewTranscriber builds the pipeline; diag may be nil.
func NewTranscriber(normalizer *audio.Normalizer, recognizer *Recognizer, diag *diagnostics.Store) *Transcriber {
	return &Transcriber{
		normalizer:  normalizer,
		recognizer:  recognizer,
		diagnostics: diag,
	}
}

// Transcribe returns the recognized text for raw audio. Inputs too short to
// hold audio and recognition misses return "" with a nil error; the original
// bytes of a miss are kept in diagnostics. Undecodable audio returns an
// error matching audio.ErrUnsupportedAudio.
func (t *Transcriber) Transcribe(ctx context.Context, raw []byte, languageCode string) (string, error) {
	if len(raw) < minAudioBytes {
		logging.LogWarn("Transcribe called with suspiciously small audio", zap.Int("bytes", len(raw)))
		return "", nil
	}

	frame, err := t.normalizer.Normalize(raw)
	if err != nil {
		return "", err
	}

	text, err := t.recognizer.Recognize(ctx, frame, languageCode)
	if err != nil {
		return "", err
	}

	if text == "" {
		if path := t.diagnostics.SaveRawInput(raw); path != "" {
			logging.S().Debugw("Saved diagnostic input audio", "path", path)
		}
		return "", nil
	}

	return text, nil
}
