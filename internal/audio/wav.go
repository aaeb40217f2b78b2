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

package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WriteWAV wraps a 16-bit frame in a WAV container at path.
func WriteWAV(path string, frame Frame) (err error) {
	if frame.Format.BitDepth != 16 {
		return fmt.Errorf("write WAV: unsupported bit depth %d", frame.Format.BitDepth)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write WAV: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("write WAV: %w", cerr)
		}
	}()

	enc := wav.NewEncoder(f, frame.Format.SampleRate, 16, frame.Format.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: frame.Format.Channels,
			SampleRate:  frame.Format.SampleRate,
		},
		Data:           unpackInt16(frame.PCM),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write WAV: %w", err)
	}
	return nil
}

func unpackInt16(pcm []byte) []int {
	out := make([]int, len(pcm)/2)
	for i := range out {
		out[i] = int(int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8))
	}
	return out
}
