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

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loqalabs/loqa-interviewer/internal/interview"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
)

// ErrNotFound is returned when no interview has the requested ID.
var ErrNotFound = errors.New("interview not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Interview is an archived interview with its transcript.
type Interview struct {
	ID             string
	Position       string
	Company        string
	QuestionsAsked int
	MaxQuestions   int
	Score          *int
	Recommendation string
	Summary        string
	Evaluation     *interview.Evaluation
	StartedAt      time.Time
	CompletedAt    *time.Time
	Entries        []interview.Entry
}

// ListOptions defines filtering and pagination options
type ListOptions struct {
	Position string
	Since    *time.Time

	Limit  int
	Offset int
}

// InterviewsStore handles database operations for archived interviews
type InterviewsStore struct {
	db *Database
}

// NewInterviewsStore creates a new interviews store
func NewInterviewsStore(db *Database) *InterviewsStore {
	return &InterviewsStore{db: db}
}

// Insert stores a session record and its transcript in one transaction
func (s *InterviewsStore) Insert(ctx context.Context, rec interview.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("invalid interview record: missing id")
	}

	var (
		score       sql.NullInt64
		completedAt sql.NullString
		evaluation  = []byte("{}")
	)
	if rec.Evaluation != nil {
		if rec.Evaluation.HasScore() {
			score = sql.NullInt64{Int64: int64(rec.Evaluation.Score), Valid: true}
		}
		data, err := json.Marshal(rec.Evaluation)
		if err != nil {
			return fmt.Errorf("failed to serialize evaluation: %w", err)
		}
		evaluation = data
	}
	if !rec.CompletedAt.IsZero() {
		completedAt = sql.NullString{String: formatTime(rec.CompletedAt), Valid: true}
	}
	recommendation := ""
	if rec.Evaluation != nil {
		recommendation = rec.Evaluation.Recommendation
	}

	tx, err := s.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO interviews (
			id, position, company, questions_asked, max_questions,
			score, recommendation, summary, evaluation,
			started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Profile.Position, rec.Profile.Company, rec.QuestionsAsked, rec.Profile.QuestionCount,
		score, recommendation, rec.Summary, string(evaluation),
		formatTime(rec.StartedAt), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interview: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO interview_entries (
			interview_id, ordinal, kind, role, focus_area, number, fallback, content, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range rec.Entries {
		row := entryRow(e)
		if _, err := stmt.ExecContext(ctx,
			rec.ID, i, string(e.Kind()), string(e.Role()), row.focusArea, row.number, row.fallback,
			row.content, formatTime(e.Time()),
		); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit interview: %w", err)
	}

	logging.LogDatabaseOperation("insert", "interviews",
		zap.String("interview_id", rec.ID),
		zap.Int("entries", len(rec.Entries)),
	)
	return nil
}

// GetByID retrieves an interview and its transcript
func (s *InterviewsStore) GetByID(ctx context.Context, id string) (*Interview, error) {
	row := s.db.DB().QueryRowContext(ctx, selectInterview+" WHERE id = ?", id)
	iv, err := scanInterview(row)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries(ctx, id)
	if err != nil {
		return nil, err
	}
	iv.Entries = entries
	return iv, nil
}

// List returns interviews newest first, without transcripts
func (s *InterviewsStore) List(ctx context.Context, options ListOptions) ([]*Interview, error) {
	query, args := buildListQuery(options)

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interviews: %w", err)
	}
	defer rows.Close()

	var list []*Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		list = append(list, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interviews: %w", err)
	}
	return list, nil
}

// Delete removes an interview; its entries go with it
func (s *InterviewsStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.DB().ExecContext(ctx, "DELETE FROM interviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete interview: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	logging.LogDatabaseOperation("delete", "interviews", zap.String("interview_id", id))
	return nil
}

const selectInterview = `
	SELECT id, position, company, questions_asked, max_questions,
		   score, recommendation, summary, evaluation,
		   started_at, completed_at
	FROM interviews`

func buildListQuery(options ListOptions) (string, []any) {
	var (
		where []string
		args  []any
	)
	if options.Position != "" {
		where = append(where, "position = ?")
		args = append(args, options.Position)
	}
	if options.Since != nil {
		where = append(where, "started_at >= ?")
		args = append(args, formatTime(*options.Since))
	}

	query := selectInterview
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id"

	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)
		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*Interview, error) {
	var (
		iv          Interview
		score       sql.NullInt64
		evaluation  string
		startedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(
		&iv.ID, &iv.Position, &iv.Company, &iv.QuestionsAsked, &iv.MaxQuestions,
		&score, &iv.Recommendation, &iv.Summary, &evaluation,
		&startedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if score.Valid {
		v := int(score.Int64)
		iv.Score = &v
	}
	if evaluation != "" && evaluation != "{}" {
		var ev interview.Evaluation
		if err := json.Unmarshal([]byte(evaluation), &ev); err != nil {
			return nil, fmt.Errorf("failed to parse evaluation JSON: %w", err)
		}
		iv.Evaluation = &ev
	}
	if iv.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		iv.CompletedAt = &t
	}
	return &iv, nil
}

func (s *InterviewsStore) entries(ctx context.Context, id string) ([]interview.Entry, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT kind, focus_area, number, fallback, content, created_at
		FROM interview_entries
		WHERE interview_id = ?
		ORDER BY ordinal`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []interview.Entry
	for rows.Next() {
		var (
			kind, focusArea, content, createdAt string
			number                              int
			fallback                            bool
		)
		if err := rows.Scan(&kind, &focusArea, &number, &fallback, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		at, err := parseTime(createdAt)
		if err != nil {
			return nil, err
		}

		switch interview.Kind(kind) {
		case interview.KindIntroduction:
			entries = append(entries, &interview.Introduction{Content: content, Fallback: fallback, At: at})
		case interview.KindQuestion:
			entries = append(entries, &interview.Question{
				Content: content, FocusArea: focusArea, Number: number, Fallback: fallback, At: at,
			})
		case interview.KindAnswer:
			entries = append(entries, &interview.Answer{Content: content, At: at})
		default:
			return nil, fmt.Errorf("unknown entry kind %q", kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

type entryFields struct {
	focusArea string
	number    int
	fallback  bool
	content   string
}

func entryRow(e interview.Entry) entryFields {
	switch e := e.(type) {
	case *interview.Introduction:
		return entryFields{fallback: e.Fallback, content: e.Content}
	case *interview.Question:
		return entryFields{focusArea: e.FocusArea, number: e.Number, fallback: e.Fallback, content: e.Content}
	case *interview.Answer:
		return entryFields{content: e.Content}
	}
	return entryFields{}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}
