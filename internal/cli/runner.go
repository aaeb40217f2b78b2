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

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/loqalabs/loqa-interviewer/internal/audio"
	"github.com/loqalabs/loqa-interviewer/internal/interview"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"github.com/loqalabs/loqa-interviewer/internal/messaging"
)

// rephraseCommand typed instead of an answer asks for a simpler question.
const rephraseCommand = "/rephrase"

// answerSource yields candidate answers in question order. ok is false once
// the source is exhausted; the interview then ends early.
type answerSource interface {
	Next(ctx context.Context) (answer string, ok bool, err error)
}

// lineAnswers reads one answer per line.
type lineAnswers struct {
	scanner *bufio.Scanner
}

func newLineAnswers(r io.Reader) *lineAnswers {
	return &lineAnswers{scanner: bufio.NewScanner(r)}
}

func (l *lineAnswers) Next(ctx context.Context) (string, bool, error) {
	if !l.scanner.Scan() {
		return "", false, l.scanner.Err()
	}
	return l.scanner.Text(), true, nil
}

type transcriber interface {
	Transcribe(ctx context.Context, raw []byte, languageCode string) (string, error)
}

// audioAnswers transcribes one recorded file per question.
type audioAnswers struct {
	files       []string
	next        int
	transcriber transcriber
	language    string
}

func (a *audioAnswers) Next(ctx context.Context) (string, bool, error) {
	if a.next >= len(a.files) {
		return "", false, nil
	}
	path := a.files[a.next]
	a.next++

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", true, fmt.Errorf("reading answer %s: %w", path, err)
	}
	text, err := a.transcriber.Transcribe(ctx, raw, a.language)
	if err != nil {
		return "", true, fmt.Errorf("transcribing %s: %w", path, err)
	}
	logging.LogAudioProcessing(filepath.Base(path), "transcribed", zap.Int("characters", len(text)))
	return text, true, nil
}

// listAnswerFiles returns the regular files in dir in lexical order.
func listAnswerFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading answers directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

type synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode, voiceName string) []byte
}

// speaker synthesises interviewer lines, writes them to dir and, when a
// publisher is set, sends them over NATS. A nil speaker does nothing.
type speaker struct {
	synth     synthesizer
	dir       string
	publisher *messaging.AudioPublisher
}

func (s *speaker) speak(ctx context.Context, sessionID, name string, number int, text string) {
	if s == nil || s.synth == nil {
		return
	}
	data := s.synth.Synthesize(ctx, text, "", "")
	if data == nil {
		// Playback is optional; the interview continues without it.
		return
	}

	if s.dir != "" {
		path := filepath.Join(s.dir, name+".mp3")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			logging.LogError(err, "Failed to write question audio", zap.String("path", path))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishQuestion(sessionID, number, text, data, "mp3"); err != nil {
			logging.LogWarn("Failed to publish question audio", zap.Error(err))
		}
	}
}

// runInterview drives a session from introduction to summary.
func runInterview(ctx context.Context, s *interview.Session, answers answerSource, spk *speaker, out io.Writer) (string, error) {
	intro, err := s.Start(ctx)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Interviewer: %s\n", intro)
	spk.speak(ctx, s.ID(), "introduction", 0, intro)

questions:
	for {
		question, err := s.NextQuestion(ctx)
		if errors.Is(err, interview.ErrNoMoreQuestions) {
			break
		}
		if err != nil {
			return "", err
		}
		number := s.QuestionsAsked()
		fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", number, s.MaxQuestions(), question)
		spk.speak(ctx, s.ID(), fmt.Sprintf("question_%02d", number), number, question)

		for {
			answer, ok, err := answers.Next(ctx)
			if err != nil {
				if errors.Is(err, audio.ErrUnsupportedAudio) {
					fmt.Fprintln(out, "(answer audio could not be decoded)")
				}
				logging.LogError(err, "Answer could not be processed", zap.Int("question", number))
				break
			}
			if !ok {
				fmt.Fprintln(out, "\nNo more answers; ending the interview early.")
				break questions
			}

			if strings.EqualFold(strings.TrimSpace(answer), rephraseCommand) {
				rephrased, err := s.Rephrase(ctx, "")
				if err != nil {
					return "", err
				}
				if rephrased != question {
					if err := s.ReplaceCurrentQuestion(rephrased); err != nil {
						return "", err
					}
					question = rephrased
				}
				fmt.Fprintf(out, "Rephrased: %s\n", question)
				spk.speak(ctx, s.ID(), fmt.Sprintf("question_%02d_rephrased", number), number, question)
				continue
			}

			accepted, err := s.SubmitAnswer(ctx, answer)
			if err != nil {
				return "", err
			}
			if accepted {
				fmt.Fprintf(out, "Candidate: %s\n", strings.TrimSpace(answer))
			} else {
				fmt.Fprintln(out, "(no answer recorded)")
			}
			break
		}
	}

	summary, err := s.Complete(ctx)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "\n%s\n", summary)
	return summary, nil
}
