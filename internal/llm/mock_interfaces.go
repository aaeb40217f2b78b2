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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// HTTPClient interface for dependency injection in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// MockHTTPClient implements HTTPClient for testing
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return nil, fmt.Errorf("no mock function provided")
}

// CreateMockHTTPClient creates a mock client that answers every request
// with a single chat completion choice holding content.
func CreateMockHTTPClient(content string) *MockHTTPClient {
	return &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if req.Body != nil {
				defer func() {
					_ = req.Body.Close() // Ignore close errors in mock
				}()
			}

			var response ChatCompletionResponse
			response.Choices = append(response.Choices, struct {
				Message Message `json:"message"`
			}{Message: Message{Role: "assistant", Content: content}})

			jsonBytes, _ := json.Marshal(response)
			resp := &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(string(jsonBytes))),
			}
			resp.Header.Set("Content-Type", "application/json")
			return resp, nil
		},
	}
}

// CreateMockHTTPClientWithError creates a mock client that returns errors
func CreateMockHTTPClientWithError(errMsg string) *MockHTTPClient {
	return &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("%s", errMsg)
		},
	}
}

// MockCompleter implements Completer for testing and records every request.
type MockCompleter struct {
	CompleteFunc func(ctx context.Context, req Request) (string, bool)

	mu       sync.Mutex
	requests []Request
}

func (m *MockCompleter) Complete(ctx context.Context, req Request) (string, bool) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", false
}

// Requests returns a copy of the requests seen so far.
func (m *MockCompleter) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns how many requests were made.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// CreateFailingCompleter returns a completer whose backend is always unavailable.
func CreateFailingCompleter() *MockCompleter {
	return &MockCompleter{}
}

// CreateEchoCompleter returns a completer that answers each operation with
// "<operation> response".
func CreateEchoCompleter() *MockCompleter {
	return &MockCompleter{
		CompleteFunc: func(ctx context.Context, req Request) (string, bool) {
			return req.Operation + " response", true
		},
	}
}
