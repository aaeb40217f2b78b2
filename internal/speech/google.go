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

package speech

import (
	"context"
	"fmt"
	"os"
	"strings"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/loqalabs/loqa-interviewer/internal/audio"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// checkCredentials fails with ErrMissingCredentials unless path names a
// readable file.
func checkCredentials(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS not set: %w", ErrMissingCredentials)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("credentials file %s: %w", path, ErrMissingCredentials)
	}
	return nil
}

// classify wraps a gRPC error with its status code for logging and callers.
func classify(op string, err error) error {
	code := status.Code(err)
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%s: %s: %w", op, code, err)
	default:
		return fmt.Errorf("%s failed (%s): %w", op, code, err)
	}
}

// GoogleRecognitionBackend calls Google Cloud Speech-to-Text synchronously.
type GoogleRecognitionBackend struct {
	client *gspeech.Client
}

// NewGoogleRecognitionBackend checks credentials before dialling.
func NewGoogleRecognitionBackend(ctx context.Context, credentialsFile string) (*GoogleRecognitionBackend, error) {
	if err := checkCredentials(credentialsFile); err != nil {
		return nil, err
	}

	client, err := gspeech.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("🎤 Google STT client initialized", "credentials", credentialsFile)
	}
	return &GoogleRecognitionBackend{client: client}, nil
}

// RecognitionRequest builds the LINEAR16 request for a canonical frame.
func RecognitionRequest(frame audio.Frame, opts Options) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(frame.Format.SampleRate),
			AudioChannelCount:          int32(frame.Format.Channels),
			LanguageCode:               opts.LanguageCode,
			Model:                      opts.Model,
			UseEnhanced:                opts.Enhanced,
			EnableAutomaticPunctuation: opts.AutomaticPunctuation,
			EnableSpokenPunctuation:    wrapperspb.Bool(opts.SpokenPunctuation),
			EnableSpokenEmojis:         wrapperspb.Bool(opts.SpokenEmojis),
			ProfanityFilter:            opts.ProfanityFilter,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: frame.PCM},
		},
	}
}

// Recognize implements RecognitionBackend.
func (b *GoogleRecognitionBackend) Recognize(ctx context.Context, frame audio.Frame, opts Options) ([]Result, error) {
	resp, err := b.client.Recognize(ctx, RecognitionRequest(frame, opts))
	if err != nil {
		return nil, classify("google recognize", err)
	}
	return convertResults(resp.GetResults()), nil
}

func convertResults(in []*speechpb.SpeechRecognitionResult) []Result {
	results := make([]Result, 0, len(in))
	for _, r := range in {
		alts := make([]Alternative, 0, len(r.GetAlternatives()))
		for _, a := range r.GetAlternatives() {
			alts = append(alts, Alternative{
				Transcript: a.GetTranscript(),
				Confidence: Confidence(float64(a.GetConfidence())),
			})
		}
		results = append(results, Result{Alternatives: alts})
	}
	return results
}

// Close implements RecognitionBackend.
func (b *GoogleRecognitionBackend) Close() error {
	return b.client.Close()
}

// GoogleSynthesisBackend calls Google Cloud Text-to-Speech and returns MP3.
type GoogleSynthesisBackend struct {
	client *texttospeech.Client
}

// NewGoogleSynthesisBackend checks credentials before dialling.
func NewGoogleSynthesisBackend(ctx context.Context, credentialsFile string) (*GoogleSynthesisBackend, error) {
	if err := checkCredentials(credentialsFile); err != nil {
		return nil, err
	}

	client, err := texttospeech.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("🔊 Google TTS client initialized", "credentials", credentialsFile)
	}
	return &GoogleSynthesisBackend{client: client}, nil
}

// SynthesisRequest builds an MP3 synthesis request.
func SynthesisRequest(text, languageCode, voiceName string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         voiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
}

// Synthesize implements SynthesisBackend.
func (b *GoogleSynthesisBackend) Synthesize(ctx context.Context, text, languageCode, voiceName string) ([]byte, error) {
	resp, err := b.client.SynthesizeSpeech(ctx, SynthesisRequest(text, languageCode, voiceName))
	if err != nil {
		return nil, classify("google synthesize", err)
	}
	return resp.GetAudioContent(), nil
}

// Close implements SynthesisBackend.
func (b *GoogleSynthesisBackend) Close() error {
	return b.client.Close()
}
