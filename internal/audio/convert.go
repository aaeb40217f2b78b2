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
	"encoding/binary"
	"math"
)

// buffer is decoded interleaved audio at its source scale.
type buffer struct {
	format Format
	float  bool // 32-bit IEEE float samples carried as raw bits
	data   []int
}

// toInt16Scale maps each sample onto the signed 16-bit range.
func (b *buffer) toInt16Scale() []float64 {
	out := make([]float64, len(b.data))
	for i, v := range b.data {
		switch {
		case b.float:
			out[i] = float64(math.Float32frombits(uint32(int32(v)))) * 32768
		case b.format.BitDepth == 8:
			// 8-bit WAV samples are unsigned
			out[i] = float64((v - 128) << 8)
		case b.format.BitDepth == 16:
			out[i] = float64(v)
		case b.format.BitDepth == 24:
			out[i] = float64(v >> 8)
		case b.format.BitDepth == 32:
			out[i] = float64(v >> 16)
		}
	}
	return out
}

// downmix averages interleaved channels into one.
func downmix(samples []float64, channels int) []float64 {
	if channels <= 1 {
		return samples
	}
	out := make([]float64, len(samples)/channels)
	for i := range out {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += samples[i*channels+ch]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// resampleLinear converts mono samples between rates by linear
// interpolation. The output holds len(in)*outRate/inRate samples.
func resampleLinear(in []float64, inRate, outRate int) []float64 {
	if inRate == outRate || len(in) == 0 {
		return in
	}
	outLen := int(int64(len(in)) * int64(outRate) / int64(inRate))
	out := make([]float64, outLen)
	step := float64(inRate) / float64(outRate)
	last := len(in) - 1
	for i := range out {
		pos := float64(i) * step
		i0 := int(pos)
		if i0 > last {
			i0 = last
		}
		i1 := i0 + 1
		if i1 > last {
			i1 = last
		}
		frac := pos - float64(i0)
		out[i] = in[i0]*(1-frac) + in[i1]*frac
	}
	return out
}

func clampInt16(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// encodeInt16LE packs samples as signed 16-bit little-endian PCM.
func encodeInt16LE(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(clampInt16(v)))
	}
	return out
}

// decodeRaw reads headerless little-endian PCM in the given format.
// 8-bit input is unsigned, wider depths are signed.
func decodeRaw(raw []byte, format Format) *buffer {
	width := format.BitDepth / 8
	n := len(raw) / width
	data := make([]int, n)
	for i := 0; i < n; i++ {
		p := raw[i*width:]
		switch width {
		case 1:
			data[i] = int(p[0])
		case 2:
			data[i] = int(int16(binary.LittleEndian.Uint16(p)))
		case 3:
			v := int32(p[0]) | int32(p[1])<<8 | int32(p[2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			data[i] = int(v)
		case 4:
			data[i] = int(int32(binary.LittleEndian.Uint32(p)))
		}
	}
	return &buffer{format: format, data: data}
}
