package store

import (
	"context"
	"errors"
	"time"

	"github.com/studyloop/engine/internal/domain/mastery"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned by a conditional write when the record
	// changed since it was read. Callers should re-read and retry.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicateEvent is returned when an answer event id has already
	// been committed.
	ErrDuplicateEvent = errors.New("duplicate event")
)

// AccountStats is the per-user aggregate consumed by the session planner
// and the performance predictor.
type AccountStats struct {
	UserID                string  `json:"user_id"`
	OverallAccuracy       float64 `json:"overall_accuracy"` // fraction, 0–1
	AverageResponseTimeMs float64 `json:"average_response_time_ms"`
	PreferredDifficulty   float64 `json:"preferred_difficulty"`
	StudyVelocity         float64 `json:"study_velocity"` // answers per minute
}

// Store is the persistence boundary for mastery records, answer-event
// deduplication, and account aggregates.
type Store interface {
	// GetRecord returns the record for (userID, conceptID), or ErrNotFound.
	GetRecord(ctx context.Context, userID, conceptID string) (*mastery.Record, error)

	// QueryRecords returns the user's records ordered by next review date
	// ascending. limit <= 0 means no limit.
	QueryRecords(ctx context.Context, userID string, limit int) ([]*mastery.Record, error)

	// CommitAnswer persists the outcome of one answer event as a single
	// atomic write: the mutated record (conditional on rec.Version), the
	// event id in the dedupe ledger (when non-empty), and the refreshed
	// account aggregates. Returns ErrVersionConflict if the record changed
	// underneath the caller, ErrDuplicateEvent if the event id was already
	// committed. On success rec.Version is incremented.
	CommitAnswer(ctx context.Context, rec *mastery.Record, eventID string, now time.Time) error

	// EventProcessed reports whether an answer event id has been committed.
	EventProcessed(ctx context.Context, eventID string) (bool, error)

	// AccountStats returns the user's aggregates. A user with no history
	// gets zero-valued stats, not an error.
	AccountStats(ctx context.Context, userID string) (*AccountStats, error)

	Close() error
}
