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
	"bytes"
	"fmt"
	"time"

	"github.com/go-audio/wav"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"github.com/loqalabs/loqa-interviewer/internal/metrics"
	"go.uber.org/zap"
)

const wavFormatFloat = 3

// Normalizer converts WAV-wrapped or raw PCM input into Canonical PCM.
// It holds no per-call state and is safe for concurrent use.
type Normalizer struct {
	metrics *metrics.Metrics
}

// NewNormalizer creates a normalizer; m may be nil.
func NewNormalizer(m *metrics.Metrics) *Normalizer {
	return &Normalizer{metrics: m}
}

// Normalize converts raw into Canonical PCM. Input without a RIFF marker is
// assumed to already be Canonical raw PCM.
func (n *Normalizer) Normalize(raw []byte) (Frame, error) {
	return n.NormalizeWithHint(raw, Canonical)
}

// NormalizeWithHint is Normalize with an explicit format for headerless
// input. WAV input always uses its own header.
func (n *Normalizer) NormalizeWithHint(raw []byte, hint Format) (frame Frame, err error) {
	start := time.Now()
	path := metrics.PathConverted

	defer func() {
		if r := recover(); r != nil {
			frame, err = Frame{}, unsupported("decoder panic", fmt.Errorf("%v", r))
		}
		if err != nil {
			path = metrics.PathRejected
			logging.LogWarn("Audio normalization failed",
				zap.Int("input_bytes", len(raw)),
				zap.Error(err),
			)
		} else {
			logging.LogAudioProcessing("", "normalize",
				zap.String("path", path),
				zap.Int("input_bytes", len(raw)),
				zap.Int("output_bytes", len(frame.PCM)),
				zap.Duration("audio_duration", frame.Duration()),
				zap.Duration("elapsed", time.Since(start)),
			)
		}
		n.metrics.RecordNormalization(path)
	}()

	if len(raw) == 0 {
		return Frame{}, unsupported("empty input", nil)
	}

	var buf *buffer
	if IsWAV(raw) {
		buf, err = decodeWAV(raw)
		if err != nil {
			return Frame{}, err
		}
		if buf.format == Canonical && !buf.float {
			path = metrics.PathPassthrough
			return Frame{PCM: packInt16(buf.data), Format: Canonical}, nil
		}
	} else {
		if err := hint.validate(); err != nil {
			return Frame{}, unsupported("invalid raw format hint", err)
		}
		if len(raw)%hint.FrameSize() != 0 {
			return Frame{}, unsupported(
				fmt.Sprintf("raw input of %d bytes is not a whole number of %s frames", len(raw), hint), nil)
		}
		if hint == Canonical {
			path = metrics.PathPassthrough
			return Frame{PCM: append([]byte(nil), raw...), Format: Canonical}, nil
		}
		buf = decodeRaw(raw, hint)
	}

	return convert(buf), nil
}

// Normalize converts raw with a default Normalizer.
func Normalize(raw []byte) (Frame, error) {
	return NewNormalizer(nil).Normalize(raw)
}

func convert(buf *buffer) Frame {
	samples := buf.toInt16Scale()
	samples = downmix(samples, buf.format.Channels)
	samples = resampleLinear(samples, buf.format.SampleRate, Canonical.SampleRate)
	return Frame{PCM: encodeInt16LE(samples), Format: Canonical}
}

func decodeWAV(raw []byte) (*buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, unsupported("invalid WAV", err)
		}
		return nil, unsupported("invalid WAV", nil)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, unsupported("failed to read WAV samples", err)
	}

	format := Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if err := format.validate(); err != nil {
		return nil, unsupported("unsupported WAV layout", err)
	}

	isFloat := dec.WavAudioFormat == wavFormatFloat
	if isFloat && format.BitDepth != 32 {
		return nil, unsupported(fmt.Sprintf("%d-bit float WAV", format.BitDepth), nil)
	}

	data := pcm.Data
	if rem := len(data) % format.Channels; rem != 0 {
		data = data[:len(data)-rem]
	}
	if len(data) == 0 {
		return nil, unsupported("WAV contains no sample frames", nil)
	}

	return &buffer{format: format, float: isFloat, data: data}, nil
}

// packInt16 writes already-16-bit samples back out as little-endian bytes.
func packInt16(data []int) []byte {
	out := make([]byte, len(data)*2)
	for i, v := range data {
		u := uint16(int16(v))
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}
