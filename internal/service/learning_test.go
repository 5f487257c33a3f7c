package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/studyloop/engine/internal/content"
	"github.com/studyloop/engine/internal/domain/mastery"
	"github.com/studyloop/engine/internal/store"
)

// fakeStore is an in-memory store.Store with the same conditional-write
// semantics as the SQLite implementation.
type fakeStore struct {
	records map[string]*mastery.Record
	events  map[string]bool

	// forceConflicts makes the next N commits fail with a version conflict.
	forceConflicts int
	commits        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]*mastery.Record),
		events:  make(map[string]bool),
	}
}

func key(userID, conceptID string) string { return userID + "|" + conceptID }

func (f *fakeStore) GetRecord(_ context.Context, userID, conceptID string) (*mastery.Record, error) {
	rec, ok := f.records[key(userID, conceptID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) QueryRecords(_ context.Context, userID string, limit int) ([]*mastery.Record, error) {
	var out []*mastery.Record
	for _, rec := range f.records {
		if rec.UserID != userID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CommitAnswer(_ context.Context, rec *mastery.Record, eventID string, _ time.Time) error {
	if f.forceConflicts > 0 {
		f.forceConflicts--
		return store.ErrVersionConflict
	}
	if eventID != "" {
		if f.events[eventID] {
			return store.ErrDuplicateEvent
		}
		f.events[eventID] = true
	}
	k := key(rec.UserID, rec.ConceptID)
	if existing, ok := f.records[k]; ok && existing.Version != rec.Version {
		return store.ErrVersionConflict
	}
	cp := *rec
	cp.Version++
	f.records[k] = &cp
	rec.Version++
	f.commits++
	return nil
}

func (f *fakeStore) EventProcessed(_ context.Context, eventID string) (bool, error) {
	return f.events[eventID], nil
}

func (f *fakeStore) AccountStats(_ context.Context, userID string) (*store.AccountStats, error) {
	stats := &store.AccountStats{UserID: userID}
	var total, correct int
	var weighted float64
	var difficulty float64
	var n int
	for _, rec := range f.records {
		if rec.UserID != userID {
			continue
		}
		total += rec.TotalAttempts
		correct += rec.CorrectAttempts
		weighted += rec.AverageResponseTimeMs * float64(rec.TotalAttempts)
		difficulty += rec.CurrentDifficulty
		n++
	}
	if total > 0 {
		stats.OverallAccuracy = float64(correct) / float64(total)
		stats.AverageResponseTimeMs = weighted / float64(total)
		stats.StudyVelocity = 60000 * float64(total) / weighted
	}
	if n > 0 {
		stats.PreferredDifficulty = difficulty / float64(n)
	}
	return stats, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeContent struct {
	concepts []content.Concept
}

func (f *fakeContent) NewConcepts(_ context.Context, _ string, topics []string, limit int) ([]content.Concept, error) {
	out := f.concepts
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestService(fs *fakeStore, fc content.Provider) *LearningService {
	if fc == nil {
		fc = &fakeContent{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewLearningService(fs, fc, DefaultConfig(), logger)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestProcessAnswerBootstrapsNewRecord(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, nil)

	rec, err := svc.ProcessAnswer(context.Background(), AnswerEvent{
		UserID: "u1", ConceptID: "c1", ConceptType: "question",
		Correct: true, ResponseTimeMs: 12000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.TotalAttempts != 1 || rec.CorrectAttempts != 1 {
		t.Errorf("expected counters 1/1, got %d/%d", rec.TotalAttempts, rec.CorrectAttempts)
	}
	// First success: repetition 1, interval 1 day.
	if rec.Repetition != 1 || rec.IntervalDays != 1 {
		t.Errorf("expected repetition 1 and interval 1, got %d and %d", rec.Repetition, rec.IntervalDays)
	}
	if rec.Version != 1 {
		t.Errorf("expected version 1 after first commit, got %d", rec.Version)
	}
}

func TestProcessAnswerMaintainsInvariants(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, nil)
	ctx := context.Background()

	outcomes := []struct {
		correct bool
		latency float64
	}{
		{true, 5000}, {true, 70000}, {false, 90000}, {true, 10000},
		{false, 10000}, {true, 20000}, {true, 30000}, {false, 65000},
		{true, 8000}, {true, 15000}, {false, 40000}, {true, 22000},
	}

	for i, o := range outcomes {
		rec, err := svc.ProcessAnswer(ctx, AnswerEvent{
			UserID: "u1", ConceptID: "c1", ConceptType: "question",
			Correct: o.correct, ResponseTimeMs: o.latency,
		})
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if rec.EasinessFactor < 1.3 || rec.EasinessFactor > 2.5 {
			t.Fatalf("answer %d: EF out of bounds: %v", i, rec.EasinessFactor)
		}
		if rec.IntervalDays < 1 || rec.IntervalDays > 365 {
			t.Fatalf("answer %d: interval out of bounds: %d", i, rec.IntervalDays)
		}
		if rec.Repetition < 0 {
			t.Fatalf("answer %d: negative repetition", i)
		}
		if rec.CorrectAttempts > rec.TotalAttempts {
			t.Fatalf("answer %d: correct exceeds total", i)
		}
		if rec.CurrentDifficulty < 0 || rec.CurrentDifficulty > 100 {
			t.Fatalf("answer %d: difficulty out of bounds: %v", i, rec.CurrentDifficulty)
		}
		if len(rec.AdjustmentHistory) > 10 {
			t.Fatalf("answer %d: adjustment history exceeds cap", i)
		}
	}
}

func TestProcessAnswerDeduplicatesByEventID(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, nil)
	ctx := context.Background()

	ev := AnswerEvent{
		EventID: "ev-1", UserID: "u1", ConceptID: "c1", ConceptType: "question",
		Correct: true, ResponseTimeMs: 12000,
	}

	first, err := svc.ProcessAnswer(ctx, ev)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.ProcessAnswer(ctx, ev)
	if err != nil {
		t.Fatalf("duplicate submit: %v", err)
	}

	if second.TotalAttempts != first.TotalAttempts {
		t.Errorf("duplicate event re-ran the transition: attempts %d vs %d",
			second.TotalAttempts, first.TotalAttempts)
	}
	if second.Repetition != first.Repetition || second.IntervalDays != first.IntervalDays {
		t.Errorf("duplicate event changed scheduling state")
	}
	if fs.commits != 1 {
		t.Errorf("expected 1 commit, got %d", fs.commits)
	}
}

func TestProcessAnswerRetriesOnVersionConflict(t *testing.T) {
	fs := newFakeStore()
	fs.forceConflicts = 2
	svc := newTestService(fs, nil)

	rec, err := svc.ProcessAnswer(context.Background(), AnswerEvent{
		UserID: "u1", ConceptID: "c1", ConceptType: "question",
		Correct: true, ResponseTimeMs: 12000,
	})
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if rec.TotalAttempts != 1 {
		t.Errorf("expected a single applied attempt, got %d", rec.TotalAttempts)
	}
}

func TestProcessAnswerGivesUpAfterRepeatedConflicts(t *testing.T) {
	fs := newFakeStore()
	fs.forceConflicts = 10
	svc := newTestService(fs, nil)

	_, err := svc.ProcessAnswer(context.Background(), AnswerEvent{
		UserID: "u1", ConceptID: "c1", ConceptType: "question",
		Correct: true, ResponseTimeMs: 12000,
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
}

func TestProcessAnswerAppliesContextTags(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, nil)

	rec, err := svc.ProcessAnswer(context.Background(), AnswerEvent{
		UserID: "u1", ConceptID: "c1", ConceptType: "question",
		Correct: true, ResponseTimeMs: 12000,
		Context: &AnswerContext{Provider: "aws", Exam: "saa-c03", Topic: "networking"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Provider != "aws" || rec.Exam != "saa-c03" || rec.Topic != "networking" {
		t.Errorf("context tags not applied: %+v", rec)
	}
}

func TestGetDueItemsHonorsLimitAndPriority(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, nil)
	now := svc.now()

	for i, due := range []time.Time{
		now.Add(-100 * time.Hour),
		now.Add(-50 * time.Hour),
		now.Add(-30 * time.Hour),
		now.Add(48 * time.Hour),
	} {
		rec := mastery.NewRecord("u1", fmt.Sprintf("c%d", i), "question", now)
		rec.NextReviewDate = due
		fs.records[key("u1", rec.ConceptID)] = rec
	}

	due, err := svc.GetDueItems(context.Background(), "u1", 2, mastery.PriorityOverdue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 items, got %d", len(due))
	}
	if due[0].ConceptID != "c0" || due[1].ConceptID != "c1" {
		t.Errorf("expected most overdue first: got [%s %s]", due[0].ConceptID, due[1].ConceptID)
	}
}

func TestAdaptDifficultyFallsBackToPreferredDifficulty(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs, nil)
	now := svc.now()

	rec := mastery.NewRecord("u1", "c1", "question", now)
	rec.CurrentDifficulty = 70
	rec.TotalAttempts = 5
	rec.AverageResponseTimeMs = 20000
	fs.records[key("u1", "c1")] = rec

	adj, err := svc.AdaptDifficulty(context.Background(), "u1",
		mastery.SessionPerformance{Accuracy: 0.75, AverageLatencyMs: 60001, QuestionsAnswered: 0},
		SessionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Zero questions answered → zero confidence → no movement from the
	// preferred difficulty of 70.
	if adj.NewDifficulty != 70 {
		t.Errorf("expected adjustment anchored at preferred difficulty 70, got %v", adj.NewDifficulty)
	}
}
