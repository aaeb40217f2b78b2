//go:build whisper

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
	"fmt"
	"os"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/loqalabs/loqa-interviewer/internal/audio"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
)

// WhisperRecognitionBackend recognizes speech locally with whisper.cpp.
// Each segment becomes one Result whose confidence is the mean token
// probability.
type WhisperRecognitionBackend struct {
	model     whisper.Model
	modelPath string
}

// NewWhisperRecognitionBackend loads the model at modelPath.
func NewWhisperRecognitionBackend(modelPath string) (*WhisperRecognitionBackend, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("whisper model not found at %s", modelPath)
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load whisper model: %w", err)
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("✅ Whisper model loaded", "path", modelPath)
	}
	return &WhisperRecognitionBackend{model: model, modelPath: modelPath}, nil
}

// Recognize implements RecognitionBackend.
func (w *WhisperRecognitionBackend) Recognize(ctx context.Context, frame audio.Frame, opts Options) ([]Result, error) {
	if w.model == nil {
		return nil, fmt.Errorf("whisper model not initialized")
	}
	if frame.Format != audio.Canonical {
		return nil, fmt.Errorf("whisper expects %s audio, got %s", audio.Canonical, frame.Format)
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create whisper context: %w", err)
	}
	if lang := whisperLanguage(opts.LanguageCode); lang != "" {
		if err := wctx.SetLanguage(lang); err != nil {
			logging.S().Warnw("Whisper language not supported, using auto", "language", lang, "error", err)
		}
	}

	if err := wctx.Process(pcmToFloat32(frame.PCM), nil, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to process audio: %w", err)
	}

	var results []Result
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		results = append(results, Result{Alternatives: []Alternative{{
			Transcript: segment.Text,
			Confidence: meanTokenProbability(segment.Tokens),
		}}})
	}

	return results, nil
}

func meanTokenProbability(tokens []whisper.Token) *float64 {
	if len(tokens) == 0 {
		return nil
	}
	var sum float64
	for _, tok := range tokens {
		sum += float64(tok.P)
	}
	return Confidence(sum / float64(len(tokens)))
}

// Close implements RecognitionBackend.
func (w *WhisperRecognitionBackend) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}
