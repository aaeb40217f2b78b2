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
	"errors"
	"fmt"
)

// ErrUnsupportedAudio matches every UnsupportedAudioError via errors.Is.
var ErrUnsupportedAudio = errors.New("unsupported audio")

// UnsupportedAudioError reports input that is empty or cannot be decoded.
type UnsupportedAudioError struct {
	Reason string
	Err    error
}

func (e *UnsupportedAudioError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported audio: %s: %v", e.Reason, e.Err)
	}
	return "unsupported audio: " + e.Reason
}

func (e *UnsupportedAudioError) Unwrap() error { return e.Err }

func (e *UnsupportedAudioError) Is(target error) bool {
	return target == ErrUnsupportedAudio
}

func unsupported(reason string, err error) error {
	return &UnsupportedAudioError{Reason: reason, Err: err}
}
