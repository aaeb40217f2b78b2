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

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := New("test")

	m.RecordCompletion("question", "ok", 120*time.Millisecond)
	m.RecordCompletion("question", "ok", 80*time.Millisecond)
	m.RecordCompletion("summary", "http_error", time.Second)
	m.RecordFallback("question")
	m.RecordRecognitionMiss()
	m.RecordNormalization(PathPassthrough)
	m.RecordNormalization(PathConverted)
	m.RecordNormalization(PathConverted)

	if got := testutil.ToFloat64(m.CompletionRequests.WithLabelValues("question", "ok")); got != 2 {
		t.Errorf("completion_requests_total{question,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CompletionRequests.WithLabelValues("summary", "http_error")); got != 1 {
		t.Errorf("completion_requests_total{summary,http_error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Fallbacks.WithLabelValues("question")); got != 1 {
		t.Errorf("fallbacks_total{question} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RecognitionMisses); got != 1 {
		t.Errorf("recognition_misses_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Normalizations.WithLabelValues(PathConverted)); got != 2 {
		t.Errorf("audio_normalizations_total{converted} = %v, want 2", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("nil Metrics panicked: %v", r)
		}
	}()

	m.RecordCompletion("question", "ok", time.Second)
	m.RecordFallback("introduction")
	m.RecordRecognitionMiss()
	m.RecordNormalization(PathRejected)
	if m.Registry() != nil {
		t.Error("Registry() on nil Metrics should be nil")
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New("")
	m.RecordFallback("summary")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `interviewer_fallbacks_total{step="summary"} 1`) {
		t.Errorf("metrics output missing fallback counter:\n%s", body)
	}
}
