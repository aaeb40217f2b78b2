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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loqalabs/loqa-interviewer/internal/audio"
)

type normalizeOptions struct {
	output   string
	wav      bool
	rawRate  int
	rawChans int
	rawBits  int
}

func newNormalizeCommand(a *app) *cobra.Command {
	var opts normalizeOptions
	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Convert audio to 16 kHz mono 16-bit PCM",
		Long: `Convert a WAV file or raw PCM to the canonical recognition format.

Raw input is assumed to be 16 kHz mono 16-bit unless --raw-rate,
--raw-channels or --raw-bits describe it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.normalize(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default <file>.pcm or <file>.wav)")
	cmd.Flags().BoolVar(&opts.wav, "wav", false, "Wrap the output in a WAV header")
	cmd.Flags().IntVar(&opts.rawRate, "raw-rate", 0, "Sample rate of raw input")
	cmd.Flags().IntVar(&opts.rawChans, "raw-channels", 0, "Channel count of raw input")
	cmd.Flags().IntVar(&opts.rawBits, "raw-bits", 0, "Bit depth of raw input")
	return cmd
}

func (o normalizeOptions) hint() (audio.Format, bool) {
	if o.rawRate == 0 && o.rawChans == 0 && o.rawBits == 0 {
		return audio.Format{}, false
	}
	f := audio.Canonical
	if o.rawRate != 0 {
		f.SampleRate = o.rawRate
	}
	if o.rawChans != 0 {
		f.Channels = o.rawChans
	}
	if o.rawBits != 0 {
		f.BitDepth = o.rawBits
	}
	return f, true
}

func (a *app) normalize(cmd *cobra.Command, input string, opts normalizeOptions) error {
	raw, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	n := audio.NewNormalizer(a.metrics)
	var frame audio.Frame
	if hint, ok := opts.hint(); ok {
		frame, err = n.NormalizeWithHint(raw, hint)
	} else {
		frame, err = n.Normalize(raw)
	}
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		ext := ".pcm"
		if opts.wav {
			ext = ".wav"
		}
		output = strings.TrimSuffix(input, ".wav") + ".normalized" + ext
	}

	if opts.wav {
		err = audio.WriteWAV(output, frame)
	} else {
		err = os.WriteFile(output, frame.PCM, 0o644)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Fprintf(a.out, "%s: %s, %d samples (%s) -> %s\n",
		input, frame.Format, frame.Samples(), frame.Duration(), output)
	return nil
}

func newTranscribeCommand(a *app) *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Normalize and transcribe an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			t, recognizer, err := a.transcriber(cmd.Context())
			if err != nil {
				return err
			}
			defer recognizer.Close()

			if language == "" {
				language = a.cfg.Recognition.LanguageCode
			}
			text, err := t.Transcribe(cmd.Context(), raw, language)
			if err != nil {
				return err
			}
			if text == "" {
				fmt.Fprintln(a.out, "(no speech recognized)")
				return nil
			}
			fmt.Fprintln(a.out, text)
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "Recognition language (default STT_LANGUAGE)")
	return cmd
}

func newSpeakCommand(a *app) *cobra.Command {
	var output, language, voice string
	cmd := &cobra.Command{
		Use:   "speak <text>...",
		Short: "Synthesize text to an MP3 file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			synth, err := a.synthesizer(cmd.Context())
			if err != nil {
				return err
			}
			defer synth.Close()

			data := synth.Synthesize(cmd.Context(), strings.Join(args, " "), language, voice)
			if data == nil {
				return fmt.Errorf("speech synthesis failed")
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "speech.mp3", "Output MP3 file")
	cmd.Flags().StringVar(&language, "language", "", "Voice language (default TTS_LANGUAGE)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice name (default TTS_VOICE)")
	return cmd
}
