// internal/service/learning.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/studyloop/engine/internal/content"
	"github.com/studyloop/engine/internal/domain/mastery"
	"github.com/studyloop/engine/internal/domain/session"
	"github.com/studyloop/engine/internal/store"
)

// commitRetries bounds the read-modify-write retry loop when the store
// reports a version conflict.
const commitRetries = 3

// Config carries the fixed numeric tables the engine runs on. Built once
// at startup and treated as immutable afterwards.
type Config struct {
	SM2       mastery.SM2Params
	Adapter   mastery.AdapterParams
	Predictor PredictorParams
	Planner   PlannerConfig
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		SM2:       mastery.DefaultSM2Params(),
		Adapter:   mastery.DefaultAdapterParams(),
		Predictor: DefaultPredictorParams(),
		Planner:   DefaultPlannerConfig(),
	}
}

// LearningService is the adaptive learning engine's entry point. It owns
// the scheduler, the difficulty adapter, the session planner, and the
// performance predictor, and coordinates them against the mastery store.
type LearningService struct {
	store     store.Store
	content   content.Provider
	sm2       *mastery.SM2
	adapter   *mastery.Adapter
	predictor PredictorParams
	planner   PlannerConfig
	plans     *cache.Cache
	logger    *slog.Logger

	now func() time.Time // injectable clock for tests
}

// NewLearningService creates the engine with the given collaborators and
// fixed configuration.
func NewLearningService(s store.Store, cp content.Provider, cfg Config, logger *slog.Logger) *LearningService {
	return &LearningService{
		store:     s,
		content:   cp,
		sm2:       mastery.NewSM2(cfg.SM2),
		adapter:   mastery.NewAdapter(cfg.Adapter),
		predictor: cfg.Predictor,
		planner:   cfg.Planner,
		plans:     cache.New(session.Validity, 10*time.Minute),
		logger:    logger,
		now:       time.Now,
	}
}

// AnswerContext carries optional tags attached to an answer event.
type AnswerContext struct {
	Provider string `json:"provider,omitempty"`
	Exam     string `json:"exam,omitempty"`
	Topic    string `json:"topic,omitempty"`
}

// AnswerEvent is one observed answer to one concept.
type AnswerEvent struct {
	EventID        string // idempotency key; empty disables deduplication
	UserID         string
	ConceptID      string
	ConceptType    string
	Correct        bool
	ResponseTimeMs float64
	Context        *AnswerContext
}

// ProcessAnswer runs the full per-answer pipeline: quality scoring, the
// SM-2 transition, the long-term difficulty adjustment, and mastery
// reclassification, committed to the store as one atomic write.
//
// Events carrying an id the store has already committed are returned
// as-is without re-running the transition, since the SM-2 transition is
// not idempotent.
func (s *LearningService) ProcessAnswer(ctx context.Context, ev AnswerEvent) (*mastery.Record, error) {
	if ev.UserID == "" || ev.ConceptID == "" {
		return nil, fmt.Errorf("process answer: user id and concept id are required")
	}
	now := s.now()

	if ev.EventID != "" {
		seen, err := s.store.EventProcessed(ctx, ev.EventID)
		if err != nil {
			return nil, fmt.Errorf("check event %s: %w", ev.EventID, err)
		}
		if seen {
			s.logger.Info("duplicate answer event ignored", "event_id", ev.EventID, "user_id", ev.UserID)
			return s.store.GetRecord(ctx, ev.UserID, ev.ConceptID)
		}
	}

	for attempt := 0; attempt < commitRetries; attempt++ {
		rec, err := s.store.GetRecord(ctx, ev.UserID, ev.ConceptID)
		if errors.Is(err, store.ErrNotFound) {
			// First answer for this pair: bootstrap with defaults.
			rec = mastery.NewRecord(ev.UserID, ev.ConceptID, ev.ConceptType, now)
		} else if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		avg := rec.AverageResponseTimeMs
		if rec.TotalAttempts == 0 {
			avg = mastery.DefaultAverageLatencyMs
		}
		grade := mastery.Grade(ev.Correct, ev.ResponseTimeMs, avg)

		rec.RecordAttempt(ev.Correct, ev.ResponseTimeMs, now)
		s.sm2.Apply(rec, grade, now)
		s.adapter.AdjustLongTerm(rec, now)
		rec.MasteryLevel = mastery.Classify(rec.TotalAttempts, rec.CorrectAttempts, rec.Repetition, rec.IntervalDays)

		if ev.Context != nil {
			if ev.Context.Provider != "" {
				rec.Provider = ev.Context.Provider
			}
			if ev.Context.Exam != "" {
				rec.Exam = ev.Context.Exam
			}
			if ev.Context.Topic != "" {
				rec.Topic = ev.Context.Topic
			}
		}

		err = s.store.CommitAnswer(ctx, rec, ev.EventID, now)
		if errors.Is(err, store.ErrVersionConflict) {
			s.logger.Warn("commit conflict, retrying", "user_id", ev.UserID, "concept_id", ev.ConceptID, "attempt", attempt+1)
			continue
		}
		if errors.Is(err, store.ErrDuplicateEvent) {
			return s.store.GetRecord(ctx, ev.UserID, ev.ConceptID)
		}
		if err != nil {
			return nil, fmt.Errorf("commit answer: %w", err)
		}

		s.logger.Info("answer processed",
			"user_id", ev.UserID, "concept_id", ev.ConceptID,
			"grade", grade, "interval_days", rec.IntervalDays, "level", rec.MasteryLevel)
		return rec, nil
	}

	return nil, fmt.Errorf("commit answer for %s/%s: gave up after %d conflicts", ev.UserID, ev.ConceptID, commitRetries)
}

// GetDueItems returns the user's records matching the given review
// priority, most urgent first. limit <= 0 means no limit.
func (s *LearningService) GetDueItems(ctx context.Context, userID string, limit int, priority mastery.Priority) ([]*mastery.Record, error) {
	records, err := s.store.QueryRecords(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	due := mastery.FilterDue(records, s.now(), priority)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// SessionContext describes where the caller currently is in a session.
type SessionContext struct {
	ConceptType       string  `json:"concept_type,omitempty"`
	CurrentDifficulty float64 `json:"current_difficulty"`
}

// AdaptDifficulty computes a short-term, non-persisted difficulty
// adjustment from rolling session performance. When the caller does not
// supply a current difficulty, the user's preferred difficulty is used,
// falling back to the neutral default.
func (s *LearningService) AdaptDifficulty(ctx context.Context, userID string, perf mastery.SessionPerformance, sctx SessionContext) (mastery.SessionAdjustment, error) {
	current := sctx.CurrentDifficulty
	if current == 0 {
		stats, err := s.store.AccountStats(ctx, userID)
		if err != nil {
			return mastery.SessionAdjustment{}, fmt.Errorf("account stats: %w", err)
		}
		current = stats.PreferredDifficulty
		if current == 0 {
			current = mastery.DefaultDifficulty
		}
	}
	return s.adapter.AdjustSession(current, perf), nil
}
