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
	"time"
)

// Format describes linear PCM sample layout.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Canonical is the only format the recognition backend accepts.
var Canonical = Format{SampleRate: 16000, Channels: 1, BitDepth: 16}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// FrameSize is the byte width of one multi-channel sample frame.
func (f Format) FrameSize() int {
	return f.Channels * ((f.BitDepth + 7) / 8)
}

func (f Format) validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	switch f.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("invalid bit depth %d", f.BitDepth)
	}
	return nil
}

// Frame is signed little-endian PCM tagged with its format.
type Frame struct {
	PCM    []byte
	Format Format
}

// Samples returns the number of sample frames.
func (f Frame) Samples() int {
	size := f.Format.FrameSize()
	if size == 0 {
		return 0
	}
	return len(f.PCM) / size
}

// Duration returns the playback length.
func (f Frame) Duration() time.Duration {
	if f.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(f.Samples()) * time.Second / time.Duration(f.Format.SampleRate)
}

// IsWAV reports whether data starts with a RIFF marker.
func IsWAV(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "RIFF"
}
