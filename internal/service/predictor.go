// internal/service/predictor.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/studyloop/engine/internal/domain/mastery"
	"github.com/studyloop/engine/internal/store"
)

// Recommended actions returned by the predictor.
const (
	ActionIntensiveStudy = "intensive_study"
	ActionPractice       = "practice"
	ActionReview         = "review"
)

// PredictorParams holds the fixed weights of the performance predictor.
// The five weights sum to 1.0.
type PredictorParams struct {
	HistoricalWeight float64
	RecencyWeight    float64
	DifficultyWeight float64
	UserSkillWeight  float64
	ContextualWeight float64

	ContextualScore float64 // fixed placeholder from the behavioral model
	BaseLatencyMs   float64
}

// DefaultPredictorParams returns the production weights.
func DefaultPredictorParams() PredictorParams {
	return PredictorParams{
		HistoricalWeight: 0.4,
		RecencyWeight:    0.2,
		DifficultyWeight: 0.15,
		UserSkillWeight:  0.15,
		ContextualWeight: 0.10,
		ContextualScore:  75,
		BaseLatencyMs:    30000,
	}
}

// Prediction estimates a user's future performance on one concept. It is
// computed fresh from a record snapshot and account aggregates, and is
// never persisted as authoritative state.
type Prediction struct {
	UserID                  string    `json:"user_id"`
	ConceptID               string    `json:"concept_id"`
	ConceptType             string    `json:"concept_type"`
	PredictedAccuracy       float64   `json:"predicted_accuracy"`        // 0–100
	PredictedResponseTimeMs float64   `json:"predicted_response_time_ms"`
	Confidence              float64   `json:"confidence"`                // discrete band: 30, 60, or 85
	RecommendedAction       string    `json:"recommended_action"`
	OptimalTimingHours      float64   `json:"optimal_timing_hours"`
	GeneratedAt             time.Time `json:"generated_at"`
}

// GetPerformancePrediction blends concept history, recency, difficulty,
// account skill, and a fixed contextual score into an accuracy estimate
// with a recommended next action. A concept with no record gets neutral
// defaults rather than an error.
func (s *LearningService) GetPerformancePrediction(ctx context.Context, userID, conceptID, conceptType string) (*Prediction, error) {
	now := s.now()

	rec, err := s.store.GetRecord(ctx, userID, conceptID)
	if errors.Is(err, store.ErrNotFound) {
		rec = nil
	} else if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	stats, err := s.store.AccountStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("account stats: %w", err)
	}

	historical := 50.0
	if rec != nil && rec.TotalAttempts > 0 {
		historical = rec.Accuracy() * 100
	}

	var hoursSince float64
	if rec != nil && !rec.LastAttemptDate.IsZero() {
		hoursSince = now.Sub(rec.LastAttemptDate).Hours()
	}
	recency := 100 - minFloat(100, hoursSince/24)

	difficulty := mastery.DefaultDifficulty
	if rec != nil {
		difficulty = rec.CurrentDifficulty
	}
	difficultyScore := 100 - difficulty

	// A user with no answer history gets a neutral skill estimate.
	userSkill := 50.0
	if stats.AverageResponseTimeMs > 0 {
		userSkill = stats.OverallAccuracy * 100
	}

	p := s.predictor
	predicted := stat.Mean(
		[]float64{historical, recency, difficultyScore, userSkill, p.ContextualScore},
		[]float64{p.HistoricalWeight, p.RecencyWeight, p.DifficultyWeight, p.UserSkillWeight, p.ContextualWeight},
	)
	predicted = clampFloat(predicted, 0, 100)

	responseTime := p.BaseLatencyMs * (difficulty / 50) * maxFloat(0.5, (100-userSkill)/100)

	attempts := 0
	if rec != nil {
		attempts = rec.TotalAttempts
	}
	var confidence float64
	switch {
	case attempts < 3:
		confidence = 30
	case attempts < 10:
		confidence = 60
	default:
		confidence = 85
	}

	action := ActionPractice
	switch {
	case predicted < 40:
		action = ActionIntensiveStudy
	case predicted < 70:
		action = ActionPractice
	case rec != nil && rec.MasteryLevel == mastery.LevelMastered:
		action = ActionReview
	}

	timing := 24.0
	if rec != nil {
		timing = float64(rec.IntervalDays) * 24 * (predicted / 100)
	}

	return &Prediction{
		UserID:                  userID,
		ConceptID:               conceptID,
		ConceptType:             conceptType,
		PredictedAccuracy:       predicted,
		PredictedResponseTimeMs: responseTime,
		Confidence:              confidence,
		RecommendedAction:       action,
		OptimalTimingHours:      timing,
		GeneratedAt:             now,
	}, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
