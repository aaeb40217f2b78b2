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

package diagnostics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loqalabs/loqa-interviewer/internal/audio"
	"github.com/loqalabs/loqa-interviewer/internal/config"
)

func testConfig(t *testing.T) config.DiagnosticsConfig {
	return config.DiagnosticsConfig{
		Enabled:       true,
		BaseDirectory: t.TempDir(),
		RawDir:        "raw_input",
		NormalizedDir: "normalized",
		FailedDir:     "failed_stt",
		MaxFiles:      100,
	}
}

func fixedClock(ts string) func() time.Time {
	tm, _ := time.Parse(timestampLayout, ts)
	return func() time.Time { return tm }
}

func TestStore_Setup(t *testing.T) {
	cfg := testConfig(t)
	dirs := New(cfg).Setup()

	if len(dirs) != 3 {
		t.Fatalf("Setup() created %d dirs, want 3", len(dirs))
	}
	for _, sub := range []string{"raw_input", "normalized", "failed_stt"} {
		if info, err := os.Stat(filepath.Join(cfg.BaseDirectory, sub)); err != nil || !info.IsDir() {
			t.Errorf("directory %s missing: %v", sub, err)
		}
	}
}

func TestStore_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Enabled = false
	s := New(cfg)

	if s.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}
	if len(s.Setup()) != 0 {
		t.Error("Setup() created directories while disabled")
	}
	if paths := s.SaveFailedRecognition(audio.Frame{PCM: []byte{1, 2}, Format: audio.Canonical}); paths != nil {
		t.Errorf("SaveFailedRecognition() wrote %v while disabled", paths)
	}
	entries, _ := os.ReadDir(cfg.BaseDirectory)
	if len(entries) != 0 {
		t.Errorf("disabled store wrote %d entries", len(entries))
	}

	var nilStore *Store
	if nilStore.Enabled() || nilStore.SaveRawInput([]byte("RIFF")) != "" || nilStore.Prune() != 0 {
		t.Error("nil Store should ignore every call")
	}
}

func TestStore_SaveFailedRecognition(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	s.now = fixedClock("20250102_030405.678")

	frame := audio.Frame{PCM: []byte{0x10, 0x00, 0xF0, 0xFF}, Format: audio.Canonical}
	paths := s.SaveFailedRecognition(frame)
	if len(paths) != 2 {
		t.Fatalf("SaveFailedRecognition() wrote %v, want raw and wav", paths)
	}

	wantRaw := filepath.Join(cfg.BaseDirectory, "failed_stt", "normalized_audio_20250102_030405.678.raw")
	if paths[0] != wantRaw {
		t.Errorf("raw path = %q, want %q", paths[0], wantRaw)
	}
	data, err := os.ReadFile(wantRaw)
	if err != nil || string(data) != string(frame.PCM) {
		t.Errorf("raw capture = %v, %v, want exact PCM", data, err)
	}

	wav, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if !strings.HasSuffix(paths[1], ".wav") || !audio.IsWAV(wav) {
		t.Errorf("wav capture %s is not a WAV file", paths[1])
	}
}

func TestStore_SaveRawInput(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	s.now = fixedClock("20250102_030405.678")

	if got := s.SaveRawInput([]byte("RIFF....WAVE")); filepath.Base(got) != "recording_20250102_030405.678.wav" {
		t.Errorf("SaveRawInput(wav) = %q", got)
	}
	if got := s.SaveRawInput([]byte{1, 2, 3, 4}); filepath.Base(got) != "recording_20250102_030405.678.raw" {
		t.Errorf("SaveRawInput(raw) = %q", got)
	}
	if got := s.SaveRawInput(nil); got != "" {
		t.Errorf("SaveRawInput(nil) = %q, want empty", got)
	}
}

func TestStore_SameTimestampDoesNotOverwrite(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	s.now = fixedClock("20250102_030405.678")

	first := s.SaveFailedRecognition(audio.Frame{PCM: []byte{1, 0}, Format: audio.Canonical})
	second := s.SaveFailedRecognition(audio.Frame{PCM: []byte{2, 0}, Format: audio.Canonical})
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("captures = %v, %v", first, second)
	}
	if first[0] == second[0] || first[1] == second[1] {
		t.Fatalf("second capture reused %v", first)
	}
	if got := filepath.Base(second[0]); got != "normalized_audio_20250102_030405.678_2.raw" {
		t.Errorf("second raw capture = %q", got)
	}
	for i, want := range []byte{1, 2} {
		data, err := os.ReadFile([][]string{first, second}[i][0])
		if err != nil || len(data) == 0 || data[0] != want {
			t.Errorf("capture %d = %v, %v, want first byte %d", i, data, err, want)
		}
	}

	raw1 := s.SaveRawInput([]byte{9, 9})
	raw2 := s.SaveRawInput([]byte{8, 8})
	if raw1 == raw2 || filepath.Base(raw2) != "recording_20250102_030405.678_2.raw" {
		t.Errorf("raw captures = %q, %q", raw1, raw2)
	}
}

func TestStore_TimestampHasMilliseconds(t *testing.T) {
	s := New(testConfig(t))
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 678_000_000, time.UTC) }
	if got := s.timestamp(); got != "20250102_030405.678" {
		t.Errorf("timestamp() = %q, want %q", got, "20250102_030405.678")
	}
}

func TestStore_Prune(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxFiles = 2
	s := New(cfg)
	s.Setup()

	dir := filepath.Join(cfg.BaseDirectory, "failed_stt")
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"a.raw", "b.raw", "c.raw", "d.raw"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte{byte(i)}, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		mt := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := s.Prune(); removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}

	entries, _ := os.ReadDir(dir)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "c.raw,d.raw" {
		t.Errorf("remaining files = %v, want newest two", names)
	}
}

func TestStore_CleanupOnStartup(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxFiles = 1
	cfg.CleanupOnStartup = true

	raw := filepath.Join(cfg.BaseDirectory, "raw_input")
	if err := os.MkdirAll(raw, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"recording_1.raw", "recording_2.raw", "recording_3.raw"} {
		if err := os.WriteFile(filepath.Join(raw, name), []byte{0}, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	New(cfg).Setup()

	entries, _ := os.ReadDir(raw)
	if len(entries) != 1 {
		t.Errorf("after startup cleanup %d files remain, want 1", len(entries))
	}
}
