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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loqalabs/loqa-interviewer/internal/interview"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"github.com/loqalabs/loqa-interviewer/internal/prompts"
)

type runOptions struct {
	profile    string
	answersDir string
	audioOut   string
	output     string
	language   string
}

func newRunCommand(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Conduct an interview",
		Long: `Conduct an interview for the role described in a profile file.

Answers are read one per line from stdin, or transcribed from the audio files
in --answers-dir (one per question, lexical order). Type /rephrase instead of
an answer to get a simpler wording of the current question.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInterview(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Interview profile (YAML or JSON)")
	cmd.Flags().StringVar(&opts.answersDir, "answers-dir", "", "Directory of recorded answers")
	cmd.Flags().StringVar(&opts.audioOut, "audio-out", "", "Write spoken questions as MP3 files to this directory")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `Result JSON file ("-" for stdout, default interview_<id>.json)`)
	cmd.Flags().StringVar(&opts.language, "language", "", "Recognition language (default STT_LANGUAGE)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

// interviewResult is the JSON document written after an interview.
type interviewResult struct {
	ID             string                     `json:"id"`
	Profile        interview.Profile          `json:"profile"`
	QuestionsAsked int                        `json:"questions_asked"`
	Transcript     []interview.TranscriptItem `json:"transcript"`
	Summary        string                     `json:"summary"`
	Evaluation     *interview.Evaluation      `json:"evaluation,omitempty"`
	StartedAt      time.Time                  `json:"started_at"`
	CompletedAt    time.Time                  `json:"completed_at"`
}

func newInterviewResult(rec interview.Record) interviewResult {
	return interviewResult{
		ID:             rec.ID,
		Profile:        rec.Profile,
		QuestionsAsked: rec.QuestionsAsked,
		Transcript:     rec.Transcript(),
		Summary:        rec.Summary,
		Evaluation:     rec.Evaluation,
		StartedAt:      rec.StartedAt,
		CompletedAt:    rec.CompletedAt,
	}
}

func (a *app) runInterview(cmd *cobra.Command, opts runOptions) error {
	ctx := cmd.Context()

	profile, err := interview.LoadProfile(opts.profile)
	if err != nil {
		return err
	}
	templates, err := prompts.Load(a.cfg.Templates.File)
	if err != nil {
		return err
	}
	completer, err := a.completer()
	if err != nil {
		return err
	}

	sessionOpts := []interview.Option{interview.WithMetrics(a.metrics)}
	ns, err := a.connectNATS()
	if err != nil {
		return err
	}
	if ns != nil {
		defer ns.Close()
		sessionOpts = append(sessionOpts, interview.WithEventSink(ns.Events()))
	}

	session, err := interview.NewSession(profile, templates, completer, sessionOpts...)
	if err != nil {
		return err
	}

	var answers answerSource = newLineAnswers(a.in)
	if opts.answersDir != "" {
		files, err := listAnswerFiles(opts.answersDir)
		if err != nil {
			return err
		}
		t, recognizer, err := a.transcriber(ctx)
		if err != nil {
			return err
		}
		defer recognizer.Close()

		language := opts.language
		if language == "" {
			language = a.cfg.Recognition.LanguageCode
		}
		answers = &audioAnswers{files: files, transcriber: t, language: language}
	}

	var spk *speaker
	if opts.audioOut != "" {
		if err := os.MkdirAll(opts.audioOut, 0o755); err != nil {
			return fmt.Errorf("creating audio directory: %w", err)
		}
		synth, err := a.synthesizer(ctx)
		if err != nil {
			return err
		}
		defer synth.Close()
		spk = &speaker{synth: synth, dir: opts.audioOut}
		if ns != nil {
			spk.publisher = ns.Audio()
		}
	}

	if _, err := runInterview(ctx, session, answers, spk, a.out); err != nil {
		return err
	}

	rec := session.Record()
	if err := a.archiveRecord(cmd, rec); err != nil {
		// The result file is still written; the archive is secondary.
		logging.LogError(err, "Failed to archive interview", zap.String("session_id", rec.ID))
	}

	output := opts.output
	if output == "" {
		output = fmt.Sprintf("interview_%s.json", rec.ID)
	}
	return writeJSON(a.out, output, newInterviewResult(rec))
}

func (a *app) archiveRecord(cmd *cobra.Command, rec interview.Record) error {
	store, db, err := a.archive(cmd.Context())
	if err != nil || store == nil {
		return err
	}
	defer db.Close()
	return store.Insert(cmd.Context(), rec)
}

// writeJSON writes v indented to path, or to out when path is "-".
func writeJSON(out io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}
