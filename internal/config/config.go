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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingCredential is returned when a required secret is not configured.
var ErrMissingCredential = errors.New("missing credential")

// Config holds all configuration for the interviewer
type Config struct {
	Completion  CompletionConfig
	Recognition RecognitionConfig
	Synthesis   SynthesisConfig
	Diagnostics DiagnosticsConfig
	Logging     LoggingConfig
	Storage     StorageConfig
	NATS        NATSConfig
	Metrics     MetricsConfig
	Templates   TemplatesConfig
}

// CompletionConfig holds chat-completion endpoint configuration
type CompletionConfig struct {
	URL     string // Base URL of an OpenAI-compatible API
	Model   string
	APIKey  string
	Timeout time.Duration
}

// RecognitionConfig holds Speech-to-Text configuration
type RecognitionConfig struct {
	Backend                    string // "google" or "whisper"
	CredentialsFile            string
	LanguageCode               string
	Model                      string
	Enhanced                   bool
	EnableAutomaticPunctuation bool
	EnableSpokenPunctuation    bool
	EnableSpokenEmojis         bool
	ProfanityFilter            bool
	WhisperModelPath           string
}

// SynthesisConfig holds Text-to-Speech configuration
type SynthesisConfig struct {
	CredentialsFile string
	LanguageCode    string
	VoiceName       string
}

// DiagnosticsConfig controls capture of audio that failed recognition
type DiagnosticsConfig struct {
	Enabled          bool
	BaseDirectory    string
	RawDir           string
	NormalizedDir    string
	FailedDir        string
	MaxFiles         int
	CleanupOnStartup bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// StorageConfig holds the interview archive location; an empty path disables it
type StorageConfig struct {
	DBPath string
}

// NATSConfig holds NATS messaging configuration; an empty URL disables it
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Namespace string
}

// TemplatesConfig points at an optional prompt template override file
type TemplatesConfig struct {
	File string
}

// Load loads configuration from environment variables with defaults.
// Variables from the credentials env file are loaded first without
// overriding anything already set in the process environment.
func Load() (*Config, error) {
	envFile := getEnvString("INTERVIEWER_ENV_FILE", "api/api.env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	config := &Config{
		Completion: CompletionConfig{
			URL:     getEnvString("COMPLETION_URL", "https://integrate.api.nvidia.com/v1"),
			Model:   getEnvString("COMPLETION_MODEL", "meta/llama-3.1-405b-instruct"),
			APIKey:  os.Getenv("NVIDIA_API_KEY"),
			Timeout: getEnvDuration("COMPLETION_TIMEOUT", 30*time.Second),
		},
		Recognition: RecognitionConfig{
			Backend:                    strings.ToLower(getEnvString("STT_BACKEND", "google")),
			CredentialsFile:            os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			LanguageCode:               getEnvString("STT_LANGUAGE", "en-GB"),
			Model:                      getEnvString("STT_MODEL", "latest_long"),
			Enhanced:                   getEnvBool("STT_ENHANCED", true),
			EnableAutomaticPunctuation: getEnvBool("STT_AUTOMATIC_PUNCTUATION", true),
			EnableSpokenPunctuation:    getEnvBool("STT_SPOKEN_PUNCTUATION", true),
			EnableSpokenEmojis:         getEnvBool("STT_SPOKEN_EMOJIS", true),
			ProfanityFilter:            getEnvBool("STT_PROFANITY_FILTER", false),
			WhisperModelPath:           getEnvString("WHISPER_MODEL_PATH", "models/ggml-base.en.bin"),
		},
		Synthesis: SynthesisConfig{
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			LanguageCode:    getEnvString("TTS_LANGUAGE", "en-GB"),
			VoiceName:       getEnvString("TTS_VOICE", "en-GB-Standard-A"),
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:          getEnvBool("AUDIO_DEBUG_ENABLED", true),
			BaseDirectory:    getEnvString("AUDIO_DEBUG_DIR", "debug_audio"),
			RawDir:           "raw_input",
			NormalizedDir:    "normalized",
			FailedDir:        "failed_stt",
			MaxFiles:         getEnvInt("AUDIO_DEBUG_MAX_FILES", 100),
			CleanupOnStartup: getEnvBool("AUDIO_DEBUG_CLEANUP_ON_STARTUP", false),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "console"),
		},
		Storage: StorageConfig{
			DBPath: os.Getenv("INTERVIEWER_DB_PATH"),
		},
		NATS: NATSConfig{
			URL:           os.Getenv("NATS_URL"),
			SubjectPrefix: getEnvString("NATS_SUBJECT_PREFIX", "interviewer"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Metrics: MetricsConfig{
			Namespace: getEnvString("METRICS_NAMESPACE", "interviewer"),
		},
		Templates: TemplatesConfig{
			File: os.Getenv("PROMPT_TEMPLATES_FILE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// RequireCompletionKey returns the completion bearer token or an error
// wrapping ErrMissingCredential.
func (c *Config) RequireCompletionKey() (string, error) {
	if strings.TrimSpace(c.Completion.APIKey) == "" {
		return "", fmt.Errorf("NVIDIA_API_KEY: %w", ErrMissingCredential)
	}
	return c.Completion.APIKey, nil
}

// RequireGoogleCredentials returns the absolute service-account file path
// used by the recognition and synthesis backends.
func (c *Config) RequireGoogleCredentials() (string, error) {
	path := c.Recognition.CredentialsFile
	if path == "" {
		path = c.Synthesis.CredentialsFile
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS: %w", ErrMissingCredential)
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS %s: %w", path, ErrMissingCredential)
	}
	return path, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Completion.URL == "" {
		return fmt.Errorf("completion URL must be provided")
	}

	if c.Completion.Timeout <= 0 {
		return fmt.Errorf("completion timeout must be positive: %s", c.Completion.Timeout)
	}

	switch c.Recognition.Backend {
	case "google", "whisper":
	default:
		return fmt.Errorf("unknown STT backend: %q", c.Recognition.Backend)
	}

	if c.Recognition.LanguageCode == "" {
		return fmt.Errorf("STT language must be provided")
	}

	if c.Diagnostics.MaxFiles < 0 {
		return fmt.Errorf("diagnostics max files must not be negative: %d", c.Diagnostics.MaxFiles)
	}

	if c.NATS.URL != "" && c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("NATS subject prefix must be provided when NATS is enabled")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
