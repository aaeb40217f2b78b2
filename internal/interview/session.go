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

package interview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loqalabs/loqa-interviewer/internal/llm"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
	"github.com/loqalabs/loqa-interviewer/internal/metrics"
	"github.com/loqalabs/loqa-interviewer/internal/prompts"
	"github.com/loqalabs/loqa-interviewer/internal/security"
)

var (
	// ErrNoMoreQuestions is returned by NextQuestion once the question
	// budget is spent. The caller should move on to Complete.
	ErrNoMoreQuestions = errors.New("no further question")
	// ErrInvalidState is returned when an operation is not valid in the
	// current session state.
	ErrInvalidState = errors.New("invalid interview state")
)

// State is the position of a session in the interview flow.
type State int

const (
	StateNotStarted State = iota
	StateIntroduced
	StateAwaitingAnswer
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateIntroduced:
		return "introduced"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Operations, used for completion requests and fallback metrics.
const (
	OpIntroduction = "introduction"
	OpQuestion     = "question"
	OpRephrase     = "rephrase"
	OpSummary      = "summary"
)

// numberedFallbacks is the count of fallback.question.<n> templates.
const numberedFallbacks = 10

// generalFocus is the focus area shown in prompts when the profile has none.
const generalFocus = "general"

var (
	samplingIntroduction = llm.Sampling{MaxTokens: 200, Temperature: 0.7, TopP: 0.9}
	samplingQuestion     = llm.Sampling{MaxTokens: 300, Temperature: 0.7, TopP: 0.9}
	samplingRephrase     = llm.Sampling{MaxTokens: 200, Temperature: 0.7, TopP: 0.9}
	samplingSummary      = llm.Sampling{MaxTokens: 1500, Temperature: 0.7, TopP: 0.9}
)

// RequiredTemplates must be present in the set passed to NewSession.
var RequiredTemplates = []string{
	"introduction.system", "introduction.user",
	"question.system", "question.user",
	"rephrase.system", "rephrase.user",
	"summary.system", "summary.user", "summary.no_responses",
	"fallback.introduction", "fallback.question.generic", "fallback.summary",
}

// Session runs one interview: introduction, a fixed number of question and
// answer turns, then a summary. Every model-backed step falls back to
// template content, so none of them fail because the backend is down.
//
// A Session is owned by a single caller and is not safe for concurrent use.
type Session struct {
	id        string
	profile   Profile
	engine    *prompts.Engine
	completer llm.Completer
	metrics   *metrics.Metrics
	events    EventSink
	now       func() time.Time

	state          State
	entries        []Entry
	responses      []string
	questionsAsked int
	summary        string
	evaluation     *Evaluation
	startedAt      time.Time
	completedAt    time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithMetrics records fallbacks on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithEventSink publishes lifecycle events to sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Session) { s.events = sink }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithID sets the session ID instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// NewSession validates the profile and template set and returns a session
// in StateNotStarted.
func NewSession(profile Profile, templates prompts.Set, completer llm.Completer, opts ...Option) (*Session, error) {
	if completer == nil {
		return nil, errors.New("interview: completion client is required")
	}
	profile = profile.WithDefaults()
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("interview: %w", err)
	}
	for _, key := range RequiredTemplates {
		if _, ok := templates[key]; !ok {
			return nil, fmt.Errorf("interview: %w", &prompts.TemplateNotFoundError{Key: key})
		}
	}

	s := &Session{
		profile:   profile,
		engine:    prompts.NewEngine(templates, profile.Values()),
		completer: completer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	return s, nil
}

func (s *Session) ID() string             { return s.id }
func (s *Session) State() State           { return s.state }
func (s *Session) QuestionsAsked() int    { return s.questionsAsked }
func (s *Session) MaxQuestions() int      { return s.profile.QuestionCount }
func (s *Session) Summary() string        { return s.summary }
func (s *Session) Profile() Profile       { return s.profile.WithDefaults() }
func (s *Session) Responses() []string    { return append([]string(nil), s.responses...) }
func (s *Session) Remaining() int         { return s.profile.QuestionCount - s.questionsAsked }
func (s *Session) HasMoreQuestions() bool { return s.Remaining() > 0 }

// Evaluation returns the parsed summary once the session is complete.
func (s *Session) Evaluation() (Evaluation, bool) {
	if s.evaluation == nil {
		return Evaluation{}, false
	}
	return *s.evaluation, true
}

// Entries returns a copy of the transcript.
func (s *Session) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	return out
}

// CurrentQuestion returns a copy of the most recent question.
func (s *Session) CurrentQuestion() (Question, bool) {
	if q := s.lastQuestion(); q != nil {
		return *q, true
	}
	return Question{}, false
}

// Start produces the introduction and moves the session to StateIntroduced.
func (s *Session) Start(ctx context.Context) (string, error) {
	if s.state != StateNotStarted {
		return "", fmt.Errorf("%w: start from %s", ErrInvalidState, s.state)
	}

	system := s.render("introduction.system", nil)
	text, ok := s.complete(ctx, OpIntroduction, system, s.render("introduction.user", nil), samplingIntroduction)
	if !ok {
		text = s.render("fallback.introduction", prompts.Vars{"max_questions": s.profile.QuestionCount})
	}

	s.startedAt = s.now()
	s.entries = append(s.entries, &Introduction{Content: text, Fallback: !ok, At: s.startedAt})
	s.state = StateIntroduced

	logging.LogInterviewEvent(s.id, "started",
		zap.String("position", security.SanitizeLogInput(s.profile.Position)),
		zap.Int("max_questions", s.profile.QuestionCount),
		zap.Bool("fallback", !ok),
	)
	s.publish(ctx, Event{
		Type:         EventStarted,
		MaxQuestions: s.profile.QuestionCount,
		Content:      text,
		Fallback:     !ok,
	})
	return text, nil
}

// NextQuestion generates and records the next question. It returns
// ErrNoMoreQuestions once QuestionsAsked reaches the profile's count.
func (s *Session) NextQuestion(ctx context.Context) (string, error) {
	switch s.state {
	case StateIntroduced, StateAwaitingAnswer:
	default:
		return "", fmt.Errorf("%w: next question from %s", ErrInvalidState, s.state)
	}
	if s.questionsAsked >= s.profile.QuestionCount {
		return "", ErrNoMoreQuestions
	}

	number := s.questionsAsked + 1
	focus := s.focusArea()
	promptFocus := focus
	if promptFocus == "" {
		promptFocus = generalFocus
	}

	system := s.render("question.system", prompts.Vars{
		"focus_area":      promptFocus,
		"question_number": number,
		"max_questions":   s.profile.QuestionCount,
		"context":         recentContext(s.entries),
	})
	text, ok := s.complete(ctx, OpQuestion, system, s.render("question.user", nil), samplingQuestion)
	if !ok {
		text = s.fallbackQuestion(focus, number)
	}

	q := &Question{Content: text, FocusArea: focus, Number: number, Fallback: !ok, At: s.now()}
	s.entries = append(s.entries, q)
	s.questionsAsked++
	s.state = StateAwaitingAnswer

	logging.LogInterviewEvent(s.id, "question",
		zap.Int("number", number),
		zap.String("focus_area", focus),
		zap.Bool("fallback", !ok),
	)
	s.publish(ctx, Event{
		Type:           EventQuestion,
		QuestionNumber: number,
		MaxQuestions:   s.profile.QuestionCount,
		FocusArea:      focus,
		Content:        text,
		Fallback:       !ok,
	})
	return text, nil
}

// Rephrase asks for a simpler wording of original, or of the current
// question when original is empty. On backend failure the original text is
// returned unchanged. The transcript is not modified; see
// ReplaceCurrentQuestion.
func (s *Session) Rephrase(ctx context.Context, original string) (string, error) {
	current := s.lastQuestion()
	if s.state != StateAwaitingAnswer || current == nil {
		return "", fmt.Errorf("%w: rephrase from %s", ErrInvalidState, s.state)
	}
	if original == "" {
		original = current.Content
	}

	system := s.render("rephrase.system", prompts.Vars{"original_question": original})
	text, ok := s.complete(ctx, OpRephrase, system, s.render("rephrase.user", nil), samplingRephrase)
	if !ok {
		return original, nil
	}

	logging.LogInterviewEvent(s.id, "rephrased", zap.Int("number", current.Number))
	return text, nil
}

// ReplaceCurrentQuestion overwrites the content and timestamp of the most
// recent question without changing its position.
func (s *Session) ReplaceCurrentQuestion(text string) error {
	q := s.lastQuestion()
	if s.state != StateAwaitingAnswer || q == nil {
		return fmt.Errorf("%w: replace question from %s", ErrInvalidState, s.state)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("interview: replacement question is empty")
	}
	q.Content = text
	q.At = s.now()
	return nil
}

// SubmitAnswer records a candidate answer. Empty or whitespace-only answers
// are ignored and reported as false.
func (s *Session) SubmitAnswer(ctx context.Context, text string) (bool, error) {
	if s.state != StateAwaitingAnswer {
		return false, fmt.Errorf("%w: answer from %s", ErrInvalidState, s.state)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logging.LogWarn("Ignoring empty answer",
			zap.String("session_id", s.id),
			zap.Int("question", s.questionsAsked),
		)
		return false, nil
	}

	s.entries = append(s.entries, &Answer{Content: text, At: s.now()})
	s.responses = append(s.responses, text)

	logging.LogInterviewEvent(s.id, "answer",
		zap.Int("question", s.questionsAsked),
		zap.Int("characters", len(text)),
	)
	s.publish(ctx, Event{
		Type:           EventAnswer,
		QuestionNumber: s.questionsAsked,
		Content:        text,
	})
	return true, nil
}

// Complete produces the summary and ends the session. It may be called
// before all questions were asked. Calling it again returns the same summary.
func (s *Session) Complete(ctx context.Context) (string, error) {
	switch s.state {
	case StateCompleted:
		return s.summary, nil
	case StateNotStarted:
		return "", fmt.Errorf("%w: complete from %s", ErrInvalidState, s.state)
	}

	fallback := false
	if len(s.responses) == 0 {
		s.summary = s.render("summary.no_responses", nil)
		logging.LogWarn("No responses to summarize", zap.String("session_id", s.id))
	} else {
		system := s.render("summary.system", prompts.Vars{"conversation": fullConversation(s.entries)})
		text, ok := s.complete(ctx, OpSummary, system, s.render("summary.user", nil), samplingSummary)
		if !ok {
			text = s.render("fallback.summary", prompts.Vars{"questions_asked": s.questionsAsked})
			fallback = true
		}
		s.summary = text
	}

	ev := ParseEvaluation(s.summary)
	s.evaluation = &ev
	s.completedAt = s.now()
	s.state = StateCompleted

	logging.LogInterviewEvent(s.id, "completed",
		zap.Int("questions_asked", s.questionsAsked),
		zap.Int("answers", len(s.responses)),
		zap.Int("score", ev.Score),
		zap.Bool("fallback", fallback),
	)
	event := Event{
		Type:           EventCompleted,
		QuestionNumber: s.questionsAsked,
		MaxQuestions:   s.profile.QuestionCount,
		Recommendation: ev.Recommendation,
		Fallback:       fallback,
	}
	if ev.HasScore() {
		score := ev.Score
		event.Score = &score
	}
	s.publish(ctx, event)
	return s.summary, nil
}

// focusArea returns the focus area for the next question, or "" for
// profiles without focus areas.
func (s *Session) focusArea() string {
	areas := s.profile.FocusAreas
	if len(areas) == 0 {
		return ""
	}
	return areas[s.questionsAsked%len(areas)]
}

// fallbackQuestion picks the per-area template, or the numbered template for
// profiles without focus areas, and falls back to the generic question.
func (s *Session) fallbackQuestion(focus string, number int) string {
	key := "fallback.question." + focus
	if focus == "" {
		key = "fallback.question." + strconv.Itoa(min(number, numberedFallbacks))
	}
	if !s.engine.Has(key) {
		key = "fallback.question.generic"
	}
	return s.render(key, prompts.Vars{"skills_head": s.profile.skillsHead()})
}

func (s *Session) lastQuestion() *Question {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if q, ok := s.entries[i].(*Question); ok {
			return q
		}
	}
	return nil
}

// complete calls the model and reports false on failure or blank output.
func (s *Session) complete(ctx context.Context, op, system, user string, sampling llm.Sampling) (string, bool) {
	text, ok := s.completer.Complete(ctx, llm.Request{
		Operation: op,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Sampling: sampling,
	})
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		s.metrics.RecordFallback(op)
		logging.LogWarn("Using fallback content",
			zap.String("session_id", s.id),
			zap.String("operation", op),
		)
		return "", false
	}
	return text, true
}

// render resolves a template whose presence NewSession already checked.
func (s *Session) render(key string, vars prompts.Vars) string {
	text, err := s.engine.Resolve(key, vars)
	if err != nil {
		logging.LogError(err, "Failed to resolve prompt template", zap.String("key", key))
		return ""
	}
	return text
}

func (s *Session) publish(ctx context.Context, event Event) {
	if s.events == nil {
		return
	}
	event.SessionID = s.id
	event.Position = s.profile.Position
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logging.LogWarn("Failed to publish interview event",
			zap.String("session_id", s.id),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
