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
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/loqalabs/loqa-interviewer/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// encodeWAV builds an in-memory WAV file through the go-audio encoder.
func encodeWAV(t *testing.T, format Format, audioFormat int, data []int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, audioFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           data,
		SourceBitDepth: format.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return raw
}

func sine(n, rate int, freq, amplitude float64) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func int16LE(samples []int) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

func TestNormalize_EmptyInput(t *testing.T) {
	_, err := Normalize(nil)
	if !errors.Is(err, ErrUnsupportedAudio) {
		t.Fatalf("Normalize(nil) error = %v, want ErrUnsupportedAudio", err)
	}

	var unsupportedErr *UnsupportedAudioError
	if !errors.As(err, &unsupportedErr) {
		t.Fatalf("error %T is not *UnsupportedAudioError", err)
	}
	if unsupportedErr.Reason != "empty input" {
		t.Errorf("Reason = %q, want %q", unsupportedErr.Reason, "empty input")
	}
}

func TestNormalize_CanonicalWAVIsByteIdentical(t *testing.T) {
	samples := sine(1600, 16000, 440, 12000)
	raw := encodeWAV(t, Canonical, 1, samples)

	m := metrics.New("test")
	frame, err := NewNormalizer(m).Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if frame.Format != Canonical {
		t.Errorf("Format = %v, want %v", frame.Format, Canonical)
	}
	if !bytes.Equal(frame.PCM, int16LE(samples)) {
		t.Error("fast path PCM differs from the WAV data chunk")
	}
	if got := testutil.ToFloat64(m.Normalizations.WithLabelValues(metrics.PathPassthrough)); got != 1 {
		t.Errorf("passthrough counter = %v, want 1", got)
	}
}

func TestNormalize_StereoCDQuality(t *testing.T) {
	const rate = 44100
	left := sine(rate, rate, 440, 10000)
	interleaved := make([]int, 0, rate*2)
	for _, v := range left {
		interleaved = append(interleaved, v, v)
	}
	raw := encodeWAV(t, Format{SampleRate: rate, Channels: 2, BitDepth: 16}, 1, interleaved)

	frame, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if frame.Format != (Format{SampleRate: 16000, Channels: 1, BitDepth: 16}) {
		t.Errorf("Format = %v, want canonical", frame.Format)
	}
	// one second of audio, allow one frame of rounding
	if got := frame.Samples(); got < 15999 || got > 16001 {
		t.Errorf("Samples() = %d, want 16000 +/- 1", got)
	}
	if len(frame.PCM)%2 != 0 {
		t.Errorf("PCM length %d is not a whole number of 16-bit samples", len(frame.PCM))
	}
}

func TestNormalize_DownmixAverages(t *testing.T) {
	// left and right cancel out, so the mono mix is silent
	interleaved := make([]int, 0, 3200)
	for i := 0; i < 1600; i++ {
		interleaved = append(interleaved, 8000, -8000)
	}
	raw := encodeWAV(t, Format{SampleRate: 16000, Channels: 2, BitDepth: 16}, 1, interleaved)

	frame, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if frame.Samples() != 1600 {
		t.Fatalf("Samples() = %d, want 1600", frame.Samples())
	}
	for i := 0; i < len(frame.PCM); i += 2 {
		if v := int16(binary.LittleEndian.Uint16(frame.PCM[i:])); v != 0 {
			t.Fatalf("sample %d = %d, want 0", i/2, v)
		}
	}
}

func TestNormalize_24BitRequantizes(t *testing.T) {
	data := []int{0x7FFF00, -0x800000, 0x000100, 0}
	raw := encodeWAV(t, Format{SampleRate: 16000, Channels: 1, BitDepth: 24}, 1, data)

	frame, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := []int16{0x7FFF, -0x8000, 1, 0}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(frame.PCM[i*2:])); got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestNormalize_FloatWAV(t *testing.T) {
	values := []float32{0.5, -0.5, 1.5, 0}
	data := make([]int, len(values))
	for i, v := range values {
		data[i] = int(int32(math.Float32bits(v)))
	}
	raw := encodeWAV(t, Format{SampleRate: 16000, Channels: 1, BitDepth: 32}, wavFormatFloat, data)

	frame, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := []int16{16384, -16384, math.MaxInt16, 0}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(frame.PCM[i*2:])); got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestNormalize_RawInput(t *testing.T) {
	pcm := int16LE([]int{1, -2, 300, -400})

	frame, err := Normalize(pcm)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !bytes.Equal(frame.PCM, pcm) || frame.Format != Canonical {
		t.Errorf("raw canonical input not passed through: %v %v", frame.PCM, frame.Format)
	}

	if _, err := Normalize([]byte{1, 2, 3}); !errors.Is(err, ErrUnsupportedAudio) {
		t.Errorf("odd-length raw input error = %v, want ErrUnsupportedAudio", err)
	}
}

func TestNormalizeWithHint(t *testing.T) {
	hint := Format{SampleRate: 8000, Channels: 2, BitDepth: 16}
	interleaved := make([]int, 0, 1600)
	for i := 0; i < 800; i++ {
		interleaved = append(interleaved, 1000, 3000)
	}

	frame, err := NewNormalizer(nil).NormalizeWithHint(int16LE(interleaved), hint)
	if err != nil {
		t.Fatalf("NormalizeWithHint() error = %v", err)
	}
	if frame.Format != Canonical {
		t.Errorf("Format = %v, want canonical", frame.Format)
	}
	if frame.Samples() != 1600 {
		t.Errorf("Samples() = %d, want 1600", frame.Samples())
	}
	if v := int16(binary.LittleEndian.Uint16(frame.PCM[100:])); v != 2000 {
		t.Errorf("mixed sample = %d, want 2000", v)
	}

	if _, err := NewNormalizer(nil).NormalizeWithHint([]byte{1, 2}, Format{SampleRate: 16000, Channels: 1, BitDepth: 12}); !errors.Is(err, ErrUnsupportedAudio) {
		t.Errorf("invalid hint error = %v, want ErrUnsupportedAudio", err)
	}
}

func TestNormalize_CorruptWAV(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"marker only", []byte("RIFF")},
		{"truncated header", append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 6)...)},
		{"garbage after marker", append([]byte("RIFF"), bytes.Repeat([]byte{0xFF}, 64)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New("test")
			_, err := NewNormalizer(m).Normalize(tt.data)
			if !errors.Is(err, ErrUnsupportedAudio) {
				t.Errorf("Normalize() error = %v, want ErrUnsupportedAudio", err)
			}
			if got := testutil.ToFloat64(m.Normalizations.WithLabelValues(metrics.PathRejected)); got != 1 {
				t.Errorf("rejected counter = %v, want 1", got)
			}
		})
	}
}

func TestWriteWAV_RoundTrip(t *testing.T) {
	frame := Frame{PCM: int16LE(sine(800, 16000, 220, 9000)), Format: Canonical}
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := WriteWAV(path, frame); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !IsWAV(raw) {
		t.Fatal("written file has no RIFF marker")
	}

	back, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !bytes.Equal(back.PCM, frame.PCM) {
		t.Error("WAV round trip changed the PCM payload")
	}

	if err := WriteWAV(path, Frame{Format: Format{SampleRate: 16000, Channels: 1, BitDepth: 24}}); err == nil {
		t.Error("WriteWAV() with 24-bit frame should fail")
	}
}

func TestFrame_Duration(t *testing.T) {
	frame := Frame{PCM: make([]byte, 32000), Format: Canonical}
	if frame.Duration().Seconds() != 1 {
		t.Errorf("Duration() = %v, want 1s", frame.Duration())
	}
	if (Frame{}).Duration() != 0 {
		t.Error("zero Frame should have zero duration")
	}
}

func TestResampleLinear(t *testing.T) {
	in := []float64{0, 10, 20, 30}
	out := resampleLinear(in, 4, 8)
	want := []float64{0, 5, 10, 15, 20, 25, 30, 30}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}

	if got := resampleLinear(in, 8, 4); len(got) != 2 || got[1] != 20 {
		t.Errorf("downsample = %v, want [0 20]", got)
	}
}
