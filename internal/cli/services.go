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
	"context"
	"fmt"

	"github.com/loqalabs/loqa-interviewer/internal/audio"
	"github.com/loqalabs/loqa-interviewer/internal/diagnostics"
	"github.com/loqalabs/loqa-interviewer/internal/llm"
	"github.com/loqalabs/loqa-interviewer/internal/messaging"
	"github.com/loqalabs/loqa-interviewer/internal/speech"
	"github.com/loqalabs/loqa-interviewer/internal/storage"
)

func (a *app) completer() (*llm.CompletionClient, error) {
	if _, err := a.cfg.RequireCompletionKey(); err != nil {
		return nil, err
	}
	return llm.NewCompletionClient(a.cfg.Completion, llm.WithMetrics(a.metrics))
}

func (a *app) diagnostics() *diagnostics.Store {
	store := diagnostics.New(a.cfg.Diagnostics)
	store.Setup()
	return store
}

// transcriber builds the normalize and recognize pipeline. The returned
// recognizer must be closed by the caller.
func (a *app) transcriber(ctx context.Context) (*speech.Transcriber, *speech.Recognizer, error) {
	if a.cfg.Recognition.Backend != "whisper" {
		if _, err := a.cfg.RequireGoogleCredentials(); err != nil {
			return nil, nil, err
		}
	}
	backend, err := speech.NewRecognitionBackend(ctx, a.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating recognition backend: %w", err)
	}

	diag := a.diagnostics()
	recognizer := speech.NewRecognizer(backend, a.cfg.Recognition, diag, a.metrics)
	return speech.NewTranscriber(audio.NewNormalizer(a.metrics), recognizer, diag), recognizer, nil
}

func (a *app) synthesizer(ctx context.Context) (*speech.Synthesizer, error) {
	if _, err := a.cfg.RequireGoogleCredentials(); err != nil {
		return nil, err
	}
	backend, err := speech.NewGoogleSynthesisBackend(ctx, a.cfg.Synthesis.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("creating synthesis backend: %w", err)
	}
	return speech.NewSynthesizer(backend, a.cfg.Synthesis), nil
}

// archive opens the interview store, or returns nil when storage is disabled.
func (a *app) archive(ctx context.Context) (*storage.InterviewsStore, *storage.Database, error) {
	if a.cfg.Storage.DBPath == "" {
		return nil, nil, nil
	}
	db, err := storage.NewDatabase(ctx, storage.DatabaseConfig{Path: a.cfg.Storage.DBPath})
	if err != nil {
		return nil, nil, err
	}
	return storage.NewInterviewsStore(db), db, nil
}

// connectNATS returns a connected service, or nil when NATS is disabled.
func (a *app) connectNATS() (*messaging.NATSService, error) {
	if a.cfg.NATS.URL == "" {
		return nil, nil
	}
	ns, err := messaging.NewNATSService(a.cfg.NATS)
	if err != nil {
		return nil, err
	}
	if err := ns.Connect(); err != nil {
		return nil, err
	}
	return ns, nil
}
