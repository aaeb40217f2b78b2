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
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/loqalabs/loqa-interviewer/internal/config"
)

// ErrWhisperDisabled is returned when the whisper backend is selected in a
// binary built without the whisper tag.
var ErrWhisperDisabled = errors.New("whisper recognition disabled (build with -tags whisper to enable)")

// NewRecognitionBackend selects the backend named in configuration.
func NewRecognitionBackend(ctx context.Context, cfg *config.Config) (RecognitionBackend, error) {
	switch cfg.Recognition.Backend {
	case "whisper":
		w, err := NewWhisperRecognitionBackend(cfg.Recognition.WhisperModelPath)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "google", "":
		return NewGoogleRecognitionBackend(ctx, cfg.Recognition.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown recognition backend %q", cfg.Recognition.Backend)
	}
}

// pcmToFloat32 converts 16-bit little-endian PCM to samples in [-1, 1).
func pcmToFloat32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return out
}

// whisperLanguage reduces a BCP-47 tag such as "en-GB" to "en".
func whisperLanguage(code string) string {
	lang, _, _ := strings.Cut(code, "-")
	return strings.ToLower(lang)
}
