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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Normalization paths reported by the audio normalizer.
const (
	PathPassthrough = "passthrough"
	PathConverted   = "converted"
	PathRejected    = "rejected"
)

// Metrics holds the interviewer's Prometheus collectors on a private
// registry. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	CompletionRequests *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	Fallbacks          *prometheus.CounterVec
	RecognitionMisses  prometheus.Counter
	Normalizations     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "interviewer"
	}

	registry := prometheus.NewRegistry()

	completionRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Total number of chat-completion requests",
		},
		[]string{"operation", "outcome"},
	)

	completionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Chat-completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"operation"},
	)

	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of deterministic fallbacks used in place of model output",
		},
		[]string{"step"},
	)

	recognitionMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_misses_total",
			Help:      "Total number of recognitions that produced no usable transcript",
		},
	)

	normalizations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_normalizations_total",
			Help:      "Total number of audio normalizations by path taken",
		},
		[]string{"path"},
	)

	registry.MustRegister(
		completionRequests,
		completionDuration,
		fallbacks,
		recognitionMisses,
		normalizations,
	)

	return &Metrics{
		registry:           registry,
		CompletionRequests: completionRequests,
		CompletionDuration: completionDuration,
		Fallbacks:          fallbacks,
		RecognitionMisses:  recognitionMisses,
		Normalizations:     normalizations,
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCompletion records one chat-completion attempt.
func (m *Metrics) RecordCompletion(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CompletionRequests.WithLabelValues(operation, outcome).Inc()
	m.CompletionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFallback records a fallback used at the given session step.
func (m *Metrics) RecordFallback(step string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(step).Inc()
}

// RecordRecognitionMiss records an empty recognition result.
func (m *Metrics) RecordRecognitionMiss() {
	if m == nil {
		return
	}
	m.RecognitionMisses.Inc()
}

// RecordNormalization records which path an audio normalization took.
func (m *Metrics) RecordNormalization(path string) {
	if m == nil {
		return
	}
	m.Normalizations.WithLabelValues(path).Inc()
}
