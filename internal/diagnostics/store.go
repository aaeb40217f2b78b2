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

// Package diagnostics captures audio that failed recognition so it can be
// inspected offline. Every write is best effort: failures are logged and
// never returned to the recognition path.
package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/loqalabs/loqa-interviewer/internal/audio"
	"github.com/loqalabs/loqa-interviewer/internal/config"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"go.uber.org/zap"
)

// Kind selects one of the capture directories.
type Kind string

const (
	KindRaw        Kind = "raw"
	KindNormalized Kind = "normalized"
	KindFailed     Kind = "failed"
)

const timestampLayout = "20060102_150405.000"

// Store writes diagnostic captures under a base directory. A nil or
// disabled Store ignores every call.
type Store struct {
	cfg  config.DiagnosticsConfig
	now  func() time.Time
	dirs map[Kind]string
}

// New builds a Store from configuration. Directories are not created
// until Setup.
func New(cfg config.DiagnosticsConfig) *Store {
	s := &Store{cfg: cfg, now: time.Now, dirs: map[Kind]string{}}
	if !cfg.Enabled {
		return s
	}
	s.dirs[KindRaw] = filepath.Join(cfg.BaseDirectory, cfg.RawDir)
	s.dirs[KindNormalized] = filepath.Join(cfg.BaseDirectory, cfg.NormalizedDir)
	s.dirs[KindFailed] = filepath.Join(cfg.BaseDirectory, cfg.FailedDir)
	return s
}

// Enabled reports whether captures are written.
func (s *Store) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

// Setup creates the capture directories and, when configured, prunes old
// files. It returns the directories that exist afterwards.
func (s *Store) Setup() map[Kind]string {
	created := map[Kind]string{}
	if !s.Enabled() {
		logging.S().Info("Audio diagnostics disabled, skipping directory creation")
		return created
	}

	for kind, dir := range s.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.LogError(err, "Failed to create diagnostics directory", zap.String("dir", dir))
			continue
		}
		created[kind] = dir
	}

	if s.cfg.CleanupOnStartup {
		if removed := s.Prune(); removed > 0 {
			logging.S().Infow("Pruned diagnostic audio files", "removed", removed)
		}
	}

	logging.S().Infow("📁 Audio diagnostics directories ready", "count", len(created), "base", s.cfg.BaseDirectory)
	return created
}

// Path returns the file path for name in the given directory, or false
// when diagnostics are disabled.
func (s *Store) Path(kind Kind, name, ext string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	dir, ok := s.dirs[kind]
	if !ok {
		return "", false
	}
	return filepath.Join(dir, name+ext), true
}

// SaveFailedRecognition writes the exact PCM sent to the recognizer plus a
// WAV-wrapped copy. It returns the paths written.
func (s *Store) SaveFailedRecognition(frame audio.Frame) []string {
	if !s.Enabled() {
		return nil
	}

	name := s.freeName(KindFailed, "normalized_audio_"+s.timestamp(), ".raw", ".wav")
	var written []string

	rawPath, _ := s.Path(KindFailed, name, ".raw")
	if err := s.write(rawPath, frame.PCM); err != nil {
		logging.LogError(err, "Failed to save normalized audio for diagnosis", zap.String("path", rawPath))
		return written
	}
	written = append(written, rawPath)
	logging.LogWarn("Saved normalized audio sent to STT", zap.String("path", rawPath))

	wavPath, _ := s.Path(KindFailed, name, ".wav")
	if err := audio.WriteWAV(wavPath, frame); err != nil {
		logging.LogError(err, "Failed to save normalized audio as WAV", zap.String("path", wavPath))
		return written
	}
	written = append(written, wavPath)

	return written
}

// SaveRawInput stores the caller's original bytes, as .wav when they carry
// a RIFF marker and .raw otherwise.
func (s *Store) SaveRawInput(raw []byte) string {
	if !s.Enabled() || len(raw) == 0 {
		return ""
	}

	ext := ".raw"
	if audio.IsWAV(raw) {
		ext = ".wav"
	}
	path, _ := s.Path(KindRaw, s.freeName(KindRaw, "recording_"+s.timestamp(), ext), ext)
	if err := s.write(path, raw); err != nil {
		logging.LogError(err, "Failed to save diagnostic audio", zap.String("path", path))
		return ""
	}
	return path
}

// Prune keeps the newest MaxFiles files in each capture directory and
// returns how many were removed. MaxFiles of zero disables pruning.
func (s *Store) Prune() int {
	if !s.Enabled() || s.cfg.MaxFiles <= 0 {
		return 0
	}

	removed := 0
	for _, dir := range s.dirs {
		n, err := pruneDir(dir, s.cfg.MaxFiles)
		removed += n
		if err != nil {
			logging.LogError(err, "Failed to prune diagnostics directory", zap.String("dir", dir))
		}
	}
	return removed
}

func (s *Store) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) timestamp() string {
	return s.now().Format(timestampLayout)
}

// freeName returns base, or base with a _2, _3, ... suffix, such that no
// file base+ext exists in the kind's directory for any of exts.
func (s *Store) freeName(kind Kind, base string, exts ...string) string {
	name := base
	for n := 2; ; n++ {
		taken := false
		for _, ext := range exts {
			path, _ := s.Path(kind, name, ext)
			if _, err := os.Lstat(path); err == nil {
				taken = true
				break
			}
		}
		if !taken {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
}

type fileEntry struct {
	path    string
	modTime time.Time
}

func pruneDir(dir string, keep int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	files := make([]fileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileEntry{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	if len(files) <= keep {
		return 0, nil
	}

	// newest first; names carry the timestamp so they break ties
	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path > files[j].path
		}
		return files[i].modTime.After(files[j].modTime)
	})

	removed := 0
	var firstErr error
	for _, f := range files[keep:] {
		if err := os.Remove(f.path); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove %s: %w", f.path, err)
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}
