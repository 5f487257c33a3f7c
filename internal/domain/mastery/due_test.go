package mastery_test

import (
	"testing"
	"time"

	"github.com/studyloop/engine/internal/domain/mastery"
)

func recordDueAt(conceptID string, due time.Time) *mastery.Record {
	rec := mastery.NewRecord("u1", conceptID, "question", testNow)
	rec.NextReviewDate = due
	return rec
}

func TestFilterDueOverdueOnly(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	records := []*mastery.Record{
		recordDueAt("fresh", now.Add(-2*time.Hour)),    // past, but within 24h
		recordDueAt("old", now.Add(-48*time.Hour)),     // overdue
		recordDueAt("ancient", now.Add(-200*time.Hour)), // very overdue
		recordDueAt("future", now.Add(24*time.Hour)),
	}

	due := mastery.FilterDue(records, now, mastery.PriorityOverdue)

	if len(due) != 2 {
		t.Fatalf("expected 2 overdue records, got %d", len(due))
	}
	if due[0].ConceptID != "ancient" || due[1].ConceptID != "old" {
		t.Errorf("expected ascending review dates [ancient old], got [%s %s]",
			due[0].ConceptID, due[1].ConceptID)
	}
}

func TestFilterDueToday(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	records := []*mastery.Record{
		recordDueAt("morning", time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)),
		recordDueAt("tonight", time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)),
		recordDueAt("yesterday", time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)),
		recordDueAt("tomorrow", time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)),
	}

	due := mastery.FilterDue(records, now, mastery.PriorityDueToday)

	if len(due) != 2 {
		t.Fatalf("expected 2 due-today records, got %d", len(due))
	}
	if due[0].ConceptID != "morning" || due[1].ConceptID != "tonight" {
		t.Errorf("unexpected order: [%s %s]", due[0].ConceptID, due[1].ConceptID)
	}
}

func TestFilterDueAllPutsOverdueFirst(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	records := []*mastery.Record{
		recordDueAt("upcoming", now.Add(3*24*time.Hour)),
		recordDueAt("today", now.Add(2*time.Hour)),
		recordDueAt("overdue", now.Add(-72*time.Hour)),
		recordDueAt("far future", now.Add(30*24*time.Hour)), // beyond 7 days, excluded
	}

	due := mastery.FilterDue(records, now, mastery.PriorityAll)

	if len(due) != 3 {
		t.Fatalf("expected 3 records, got %d", len(due))
	}
	if due[0].ConceptID != "overdue" {
		t.Errorf("expected overdue record first, got %s", due[0].ConceptID)
	}
	if due[1].ConceptID != "today" || due[2].ConceptID != "upcoming" {
		t.Errorf("expected [today upcoming] after overdue, got [%s %s]",
			due[1].ConceptID, due[2].ConceptID)
	}
}

func TestFilterDueDoesNotModifyInput(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	records := []*mastery.Record{
		recordDueAt("b", now.Add(-48*time.Hour)),
		recordDueAt("a", now.Add(-96*time.Hour)),
	}

	mastery.FilterDue(records, now, mastery.PriorityAll)

	if records[0].ConceptID != "b" || records[1].ConceptID != "a" {
		t.Error("input slice order changed")
	}
}
