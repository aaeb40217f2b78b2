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
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/loqalabs/loqa-interviewer/internal/audio"
	"github.com/loqalabs/loqa-interviewer/internal/config"
	"github.com/loqalabs/loqa-interviewer/internal/diagnostics"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"github.com/loqalabs/loqa-interviewer/internal/metrics"
	"go.uber.org/zap"
)

// ErrMissingCredentials is returned before any network call when the
// recognition or synthesis service account is not configured.
var ErrMissingCredentials = fmt.Errorf("speech: %w", config.ErrMissingCredential)

// Alternative is one candidate transcript. A nil Confidence means the
// backend did not report one.
type Alternative struct {
	Transcript string
	Confidence *float64
}

// Result is one recognized span with alternatives ordered best first.
type Result struct {
	Alternatives []Alternative
}

// Options is the per-call recognition configuration handed to a backend.
type Options struct {
	LanguageCode         string
	Model                string
	Enhanced             bool
	AutomaticPunctuation bool
	SpokenPunctuation    bool
	SpokenEmojis         bool
	ProfanityFilter      bool
}

// RecognitionBackend turns canonical PCM into ranked results.
type RecognitionBackend interface {
	Recognize(ctx context.Context, frame audio.Frame, opts Options) ([]Result, error)
	Close() error
}

// Recognizer applies the merge policy on top of a backend and captures
// diagnostics when nothing usable comes back.
type Recognizer struct {
	backend     RecognitionBackend
	cfg         config.RecognitionConfig
	diagnostics *diagnostics.Store
	metrics     *metrics.Metrics
}

// NewRecognizer wires a backend with configuration; diag and m may be nil.
func NewRecognizer(backend RecognitionBackend, cfg config.RecognitionConfig, diag *diagnostics.Store, m *metrics.Metrics) *Recognizer {
	return &Recognizer{
		backend:     backend,
		cfg:         cfg,
		diagnostics: diag,
		metrics:     m,
	}
}

// Options builds backend options from configuration. A non-empty
// languageCode overrides the configured language.
func (r *Recognizer) Options(languageCode string) Options {
	if languageCode == "" {
		languageCode = r.cfg.LanguageCode
	}
	return Options{
		LanguageCode:         languageCode,
		Model:                r.cfg.Model,
		Enhanced:             r.cfg.Enhanced,
		AutomaticPunctuation: r.cfg.EnableAutomaticPunctuation,
		SpokenPunctuation:    r.cfg.EnableSpokenPunctuation,
		SpokenEmojis:         r.cfg.EnableSpokenEmojis,
		ProfanityFilter:      r.cfg.ProfanityFilter,
	}
}

// Recognize calls the backend once. An empty merged transcript is a miss:
// the PCM is captured to diagnostics and "" is returned without error.
// Backend errors are returned unchanged.
func (r *Recognizer) Recognize(ctx context.Context, frame audio.Frame, languageCode string) (string, error) {
	if r.backend == nil {
		return "", errors.New("speech: no recognition backend configured")
	}

	opts := r.Options(languageCode)
	logging.LogRecognition("request",
		zap.Int("pcm_bytes", len(frame.PCM)),
		zap.Int("sample_rate", frame.Format.SampleRate),
		zap.Int("channels", frame.Format.Channels),
		zap.String("language", opts.LanguageCode),
	)

	results, err := r.backend.Recognize(ctx, frame, opts)
	if err != nil {
		logging.LogError(err, "Speech recognition failed", zap.String("language", opts.LanguageCode))
		return "", err
	}

	transcript := MergeResults(results)
	if strings.TrimSpace(transcript) == "" {
		logging.LogWarn("Speech recognition returned only empty or low-confidence transcripts",
			zap.Int("results", len(results)))
		r.metrics.RecordRecognitionMiss()
		r.diagnostics.SaveFailedRecognition(frame)
		return "", nil
	}

	logging.LogRecognition("complete",
		zap.Int("results", len(results)),
		zap.Int("transcript_length", len(transcript)),
	)
	return transcript, nil
}

// Close releases the backend.
func (r *Recognizer) Close() error {
	if r.backend == nil {
		return nil
	}
	return r.backend.Close()
}

// MergeResults keeps the first alternative of each result when its
// confidence is a non-negative number and its text is not blank, and joins
// the kept transcripts with single spaces in result order.
func MergeResults(results []Result) string {
	kept := make([]string, 0, len(results))
	for i, result := range results {
		if len(result.Alternatives) == 0 {
			logging.LogWarn("Recognition result has no alternatives", zap.Int("result", i))
			continue
		}

		alt := result.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		switch {
		case text == "":
			logging.LogRecognition("discard_empty", zap.Int("result", i))
		case !validConfidence(alt.Confidence):
			logging.LogWarn("Low confidence transcript ignored",
				zap.Int("result", i),
				zap.String("transcript", alt.Transcript),
			)
		default:
			kept = append(kept, alt.Transcript)
		}
	}
	return strings.Join(kept, " ")
}

func validConfidence(c *float64) bool {
	return c != nil && !math.IsNaN(*c) && *c >= 0
}

// Confidence returns a pointer for building Alternatives.
func Confidence(v float64) *float64 {
	return &v
}
