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
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/loqalabs/loqa-interviewer/internal/interview"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(context.Background(), DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "nested", "interviews.db"),
	})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(id string, started time.Time, score int) interview.Record {
	ev := &interview.Evaluation{
		Score:          score,
		Recommendation: "Hire",
		Strengths:      []string{"Clear answers"},
	}
	return interview.Record{
		ID: id,
		Profile: interview.Profile{
			Position:      "Backend Engineer",
			Company:       "Acme",
			QuestionCount: 2,
		},
		State:          interview.StateCompleted,
		QuestionsAsked: 1,
		Entries: []interview.Entry{
			&interview.Introduction{Content: "Hello", Fallback: true, At: started},
			&interview.Question{Content: "Why Go?", FocusArea: "technical_skills", Number: 1, At: started.Add(time.Second)},
			&interview.Answer{Content: "Simplicity", At: started.Add(2 * time.Second)},
		},
		Summary:     "Overall Score: 8/10",
		Evaluation:  ev,
		StartedAt:   started,
		CompletedAt: started.Add(time.Minute),
	}
}

func TestNewDatabase(t *testing.T) {
	db := openTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	var fk int
	if err := db.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	if _, err := NewDatabase(context.Background(), DatabaseConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestInterviewsStore_InsertAndGet(t *testing.T) {
	store := NewInterviewsStore(openTestDB(t))
	ctx := context.Background()
	started := time.Date(2025, 5, 1, 9, 30, 0, 123, time.UTC)

	if err := store.Insert(ctx, testRecord("iv-1", started, 8)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := store.GetByID(ctx, "iv-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Position != "Backend Engineer" || got.Company != "Acme" || got.QuestionsAsked != 1 || got.MaxQuestions != 2 {
		t.Errorf("interview = %+v", got)
	}
	if got.Score == nil || *got.Score != 8 {
		t.Errorf("Score = %v, want 8", got.Score)
	}
	if got.Recommendation != "Hire" || got.Summary != "Overall Score: 8/10" {
		t.Errorf("Recommendation = %q, Summary = %q", got.Recommendation, got.Summary)
	}
	if got.Evaluation == nil || len(got.Evaluation.Strengths) != 1 {
		t.Errorf("Evaluation = %+v", got.Evaluation)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(started.Add(time.Minute)) {
		t.Errorf("CompletedAt = %v", got.CompletedAt)
	}

	if len(got.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(got.Entries))
	}
	intro, ok := got.Entries[0].(*interview.Introduction)
	if !ok || intro.Content != "Hello" || !intro.Fallback {
		t.Errorf("entry 0 = %+v", got.Entries[0])
	}
	q, ok := got.Entries[1].(*interview.Question)
	if !ok || q.Content != "Why Go?" || q.FocusArea != "technical_skills" || q.Number != 1 || q.Fallback {
		t.Errorf("entry 1 = %+v", got.Entries[1])
	}
	a, ok := got.Entries[2].(*interview.Answer)
	if !ok || a.Content != "Simplicity" || !a.At.Equal(started.Add(2*time.Second)) {
		t.Errorf("entry 2 = %+v", got.Entries[2])
	}
}

func TestInterviewsStore_NoScore(t *testing.T) {
	store := NewInterviewsStore(openTestDB(t))
	ctx := context.Background()

	rec := testRecord("iv-none", time.Now(), interview.NoScore)
	rec.CompletedAt = time.Time{}
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetByID(ctx, "iv-none")
	if err != nil {
		t.Fatal(err)
	}
	if got.Score != nil {
		t.Errorf("Score = %v, want nil", *got.Score)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", got.CompletedAt)
	}
}

func TestInterviewsStore_InsertDuplicateRollsBack(t *testing.T) {
	db := openTestDB(t)
	store := NewInterviewsStore(db)
	ctx := context.Background()

	rec := testRecord("iv-dup", time.Now(), 5)
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, rec); err == nil {
		t.Fatal("expected error for duplicate id")
	}

	var n int
	if err := db.DB().QueryRow("SELECT COUNT(*) FROM interview_entries WHERE interview_id = ?", "iv-dup").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("entries after failed insert = %d, want 3", n)
	}

	if err := store.Insert(ctx, interview.Record{}); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestInterviewsStore_List(t *testing.T) {
	store := NewInterviewsStore(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		rec := testRecord(id, base.Add(time.Duration(i)*time.Hour), i)
		if id == "c" {
			rec.Profile.Position = "Designer"
		}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		options ListOptions
		want    []string
	}{
		{"all newest first", ListOptions{}, []string{"c", "b", "a"}},
		{"by position", ListOptions{Position: "Backend Engineer"}, []string{"b", "a"}},
		{"since", ListOptions{Since: ptr(base.Add(time.Hour))}, []string{"c", "b"}},
		{"paged", ListOptions{Limit: 1, Offset: 1}, []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := store.List(ctx, tt.options)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var ids []string
			for _, iv := range list {
				ids = append(ids, iv.ID)
				if iv.Entries != nil {
					t.Errorf("List() loaded entries for %s", iv.ID)
				}
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}
}

func TestInterviewsStore_Delete(t *testing.T) {
	db := openTestDB(t)
	store := NewInterviewsStore(db)
	ctx := context.Background()

	if err := store.Insert(ctx, testRecord("gone", time.Now(), 3)); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByID(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	var n int
	if err := db.DB().QueryRow("SELECT COUNT(*) FROM interview_entries").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("entries left after delete = %d", n)
	}

	if err := store.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func ptr[T any](v T) *T { return &v }
