//go:build !whisper

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

	"github.com/loqalabs/loqa-interviewer/internal/audio"
)

// WhisperRecognitionBackend stub implementation when whisper is disabled
type WhisperRecognitionBackend struct{}

// NewWhisperRecognitionBackend fails with ErrWhisperDisabled in builds
// without the whisper tag.
func NewWhisperRecognitionBackend(modelPath string) (*WhisperRecognitionBackend, error) {
	return nil, fmt.Errorf("whisper model %s: %w", modelPath, ErrWhisperDisabled)
}

// Recognize stub implementation always fails
func (w *WhisperRecognitionBackend) Recognize(ctx context.Context, frame audio.Frame, opts Options) ([]Result, error) {
	return nil, ErrWhisperDisabled
}

// Close stub implementation
func (w *WhisperRecognitionBackend) Close() error {
	return nil
}
