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

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/loqalabs/loqa-interviewer/internal/config"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"github.com/loqalabs/loqa-interviewer/internal/metrics"
	"go.uber.org/zap"
)

// Completion outcomes reported to metrics.
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeHTTPError      = "http_error"
	OutcomeDecodeError    = "decode_error"
	OutcomeEmpty          = "empty"
)

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Sampling holds the per-call-site generation parameters.
type Sampling struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Request is a single chat-completion call. Operation labels logs and metrics.
type Request struct {
	Operation string
	Messages  []Message
	Sampling  Sampling
}

// Completer produces model text for a request. The bool is false on any
// failure; callers supply their own fallback.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, bool)
}

// ChatCompletionRequest is the wire body of an OpenAI-compatible chat completion
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	Stream      bool      `json:"stream"`
}

// ChatCompletionResponse is the subset of the response body we read
type ChatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// CompletionClient talks to an OpenAI-compatible /chat/completions endpoint.
// It never retries and never returns an error from Complete.
type CompletionClient struct {
	baseURL string
	model   string
	apiKey  string
	timeout time.Duration
	client  HTTPClient
	metrics *metrics.Metrics
}

// Option customises a CompletionClient.
type Option func(*CompletionClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *CompletionClient) { c.client = client }
}

// WithMetrics records request outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *CompletionClient) { c.metrics = m }
}

// NewCompletionClient validates the bearer token and builds a client.
// A missing token is a configuration error wrapping config.ErrMissingCredential.
func NewCompletionClient(cfg config.CompletionConfig, opts ...Option) (*CompletionClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("completion client: NVIDIA_API_KEY: %w", config.ErrMissingCredential)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("completion URL cannot be empty")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &CompletionClient{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("🧠 Completion client initialized",
			"url", c.baseURL,
			"model", c.model,
			"timeout", c.timeout,
		)
	}

	return c, nil
}

// Complete sends one request. Transport failures, non-2xx statuses,
// malformed bodies, missing choices and empty content all yield ("", false).
func (c *CompletionClient) Complete(ctx context.Context, req Request) (string, bool) {
	start := time.Now()
	content, outcome := c.do(ctx, req)
	c.metrics.RecordCompletion(req.Operation, outcome, time.Since(start))

	if outcome != OutcomeOK {
		return "", false
	}

	logging.LogCompletion(req.Operation,
		zap.Int("messages", len(req.Messages)),
		zap.Int("response_length", len(content)),
		zap.Duration("duration", time.Since(start)),
	)
	return content, true
}

func (c *CompletionClient) do(ctx context.Context, req Request) (string, string) {
	body, err := json.Marshal(ChatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.Sampling.MaxTokens,
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
		Stream:      false,
	})
	if err != nil {
		logging.LogError(err, "Failed to marshal completion request", zap.String("operation", req.Operation))
		return "", OutcomeDecodeError
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		logging.LogError(err, "Failed to create completion request", zap.String("operation", req.Operation))
		return "", OutcomeTransportError
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		logging.LogError(err, "Completion request failed",
			zap.String("operation", req.Operation),
			zap.String("url", c.baseURL),
		)
		return "", OutcomeTransportError
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.LogError(err, "Failed to read completion response", zap.String("operation", req.Operation))
		return "", OutcomeTransportError
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.LogWarn("Completion request rejected",
			zap.String("operation", req.Operation),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", truncate(string(respBody), 512)),
		)
		return "", OutcomeHTTPError
	}

	var parsed ChatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		logging.LogError(err, "Failed to parse completion response", zap.String("operation", req.Operation))
		return "", OutcomeDecodeError
	}

	if len(parsed.Choices) == 0 {
		logging.LogWarn("Completion response has no choices", zap.String("operation", req.Operation))
		return "", OutcomeDecodeError
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		logging.LogWarn("Completion response content is empty", zap.String("operation", req.Operation))
		return "", OutcomeEmpty
	}

	return content, OutcomeOK
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
