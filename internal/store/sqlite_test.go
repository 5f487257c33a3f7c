package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/studyloop/engine/internal/domain/mastery"
	"github.com/studyloop/engine/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "engine-test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(now time.Time) *mastery.Record {
	rec := mastery.NewRecord("u1", "c1", "question", now)
	rec.RecordAttempt(true, 12000, now)
	rec.NextReviewDate = now.AddDate(0, 0, 1)
	rec.Provider = "aws"
	rec.Exam = "saa-c03"
	rec.AppendAdjustment(mastery.Adjustment{
		Date: now, Before: 50, After: 55, Reason: "high accuracy",
		Accuracy: 0.9, AverageLatencyMs: 12000, Confidence: 100,
	})
	return rec
}

func TestCommitAndGetRecordRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	rec := sampleRecord(now)
	if err := s.CommitAnswer(ctx, rec, "ev-1", now); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if rec.Version != 1 {
		t.Errorf("expected version 1 after first commit, got %d", rec.Version)
	}

	got, err := s.GetRecord(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.EasinessFactor != rec.EasinessFactor ||
		got.IntervalDays != rec.IntervalDays ||
		got.TotalAttempts != rec.TotalAttempts ||
		got.CurrentDifficulty != rec.CurrentDifficulty {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if !got.NextReviewDate.Equal(rec.NextReviewDate) {
		t.Errorf("next review date mismatch: %v vs %v", got.NextReviewDate, rec.NextReviewDate)
	}
	if len(got.AdjustmentHistory) != 1 || got.AdjustmentHistory[0].Reason != "high accuracy" {
		t.Errorf("adjustment history not preserved: %+v", got.AdjustmentHistory)
	}
	if got.Provider != "aws" || got.Exam != "saa-c03" {
		t.Errorf("context tags not preserved: %+v", got)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRecord(context.Background(), "u1", "missing")
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCommitDetectsVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	rec := sampleRecord(now)
	if err := s.CommitAnswer(ctx, rec, "", now); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	// A writer holding the old version loses.
	stale := sampleRecord(now)
	stale.Version = 0
	if err := s.CommitAnswer(ctx, stale, "", now); err != store.ErrVersionConflict {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	// The current version wins.
	rec.RecordAttempt(false, 30000, now.Add(time.Minute))
	if err := s.CommitAnswer(ctx, rec, "", now.Add(time.Minute)); err != nil {
		t.Errorf("expected commit with current version to succeed, got %v", err)
	}
	if rec.Version != 2 {
		t.Errorf("expected version 2, got %d", rec.Version)
	}
}

func TestCommitRejectsDuplicateEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	rec := sampleRecord(now)
	if err := s.CommitAnswer(ctx, rec, "ev-1", now); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	seen, err := s.EventProcessed(ctx, "ev-1")
	if err != nil || !seen {
		t.Errorf("expected event ev-1 to be recorded, got seen=%v err=%v", seen, err)
	}

	rec.RecordAttempt(true, 10000, now)
	if err := s.CommitAnswer(ctx, rec, "ev-1", now); err != store.ErrDuplicateEvent {
		t.Errorf("expected ErrDuplicateEvent, got %v", err)
	}
}

func TestQueryRecordsOrderedByReviewDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	for i, offset := range []int{5, 1, 3} {
		rec := mastery.NewRecord("u1", []string{"c-later", "c-soon", "c-mid"}[i], "question", now)
		rec.NextReviewDate = now.AddDate(0, 0, offset)
		if err := s.CommitAnswer(ctx, rec, "", now); err != nil {
			t.Fatalf("commit %d failed: %v", i, err)
		}
	}

	records, err := s.QueryRecords(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	want := []string{"c-soon", "c-mid", "c-later"}
	for i, rec := range records {
		if rec.ConceptID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, rec.ConceptID, want[i])
		}
	}

	limited, err := s.QueryRecords(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("limited query failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 records with limit, got %d", len(limited))
	}
}

func TestAccountStatsRefreshedOnCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// Unknown user: zero-valued stats, no error.
	stats, err := s.AccountStats(ctx, "nobody")
	if err != nil {
		t.Fatalf("stats for unknown user failed: %v", err)
	}
	if stats.OverallAccuracy != 0 {
		t.Errorf("expected zero accuracy for unknown user, got %v", stats.OverallAccuracy)
	}

	rec := mastery.NewRecord("u1", "c1", "question", now)
	rec.RecordAttempt(true, 20000, now)
	rec.RecordAttempt(false, 40000, now)
	if err := s.CommitAnswer(ctx, rec, "", now); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	stats, err = s.AccountStats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.OverallAccuracy != 0.5 {
		t.Errorf("expected accuracy 0.5, got %v", stats.OverallAccuracy)
	}
	if stats.AverageResponseTimeMs != 30000 {
		t.Errorf("expected average response 30000, got %v", stats.AverageResponseTimeMs)
	}
	if stats.StudyVelocity <= 0 {
		t.Errorf("expected positive study velocity, got %v", stats.StudyVelocity)
	}
}
