package mastery

import "time"

// Level is the categorical mastery label derived from attempt history.
type Level string

const (
	LevelLearning  Level = "learning"
	LevelReviewing Level = "reviewing"
	LevelMastered  Level = "mastered"
)

// Bounds enforced on every record after any mutation.
const (
	MinEasinessFactor = 1.3
	MaxEasinessFactor = 2.5
	MinIntervalDays   = 1
	MaxIntervalDays   = 365
	MinDifficulty     = 0.0
	MaxDifficulty     = 100.0

	// DefaultDifficulty is the starting difficulty for a fresh record.
	DefaultDifficulty = 50.0

	// AdjustmentHistoryCap bounds the difficulty adjustment log.
	// Oldest entries are evicted first.
	AdjustmentHistoryCap = 10
)

// Adjustment is one entry of a record's difficulty adjustment history.
type Adjustment struct {
	Date             time.Time `json:"date"`
	Before           float64   `json:"before"`
	After            float64   `json:"after"`
	Reason           string    `json:"reason"`
	Accuracy         float64   `json:"accuracy"`
	AverageLatencyMs float64   `json:"average_latency_ms"`
	Confidence       float64   `json:"confidence"`
}

// Record tracks one user's learning state for one concept.
// Created lazily on the first answer and never deleted; it ages in place.
// Only the scheduler and the difficulty adapter mutate it.
type Record struct {
	UserID      string `json:"user_id"`
	ConceptID   string `json:"concept_id"`
	ConceptType string `json:"concept_type"`

	// Scheduling state (SM-2).
	EasinessFactor float64   `json:"easiness_factor"`
	IntervalDays   int       `json:"interval_days"`
	Repetition     int       `json:"repetition"`
	NextReviewDate time.Time `json:"next_review_date"`

	// Attempt counters.
	TotalAttempts         int       `json:"total_attempts"`
	CorrectAttempts       int       `json:"correct_attempts"`
	LastAttemptDate       time.Time `json:"last_attempt_date"`
	AverageResponseTimeMs float64   `json:"average_response_time_ms"`

	MasteryLevel Level `json:"mastery_level"`

	// Difficulty state.
	CurrentDifficulty float64      `json:"current_difficulty"`
	OptimalDifficulty float64      `json:"optimal_difficulty"`
	AdjustmentHistory []Adjustment `json:"adjustment_history,omitempty"`

	// Optional context tags.
	Provider string `json:"provider,omitempty"`
	Exam     string `json:"exam,omitempty"`
	Topic    string `json:"topic,omitempty"`

	// Version is the optimistic-concurrency counter used by the store's
	// conditional write. Zero means the record has never been persisted.
	Version int64 `json:"version"`
}

// NewRecord creates a record with scheduling defaults for a concept the
// user has never answered before.
func NewRecord(userID, conceptID, conceptType string, now time.Time) *Record {
	return &Record{
		UserID:            userID,
		ConceptID:         conceptID,
		ConceptType:       conceptType,
		EasinessFactor:    MaxEasinessFactor,
		IntervalDays:      MinIntervalDays,
		Repetition:        0,
		NextReviewDate:    now,
		MasteryLevel:      LevelLearning,
		CurrentDifficulty: DefaultDifficulty,
		OptimalDifficulty: DefaultDifficulty,
	}
}

// Accuracy returns the lifetime fraction of correct answers, 0 when the
// record has no attempts yet.
func (r *Record) Accuracy() float64 {
	if r.TotalAttempts == 0 {
		return 0
	}
	return float64(r.CorrectAttempts) / float64(r.TotalAttempts)
}

// RecordAttempt updates the attempt counters and the rolling average
// response time for one answer. The caller must grade the answer against
// the record's average *before* calling this.
func (r *Record) RecordAttempt(correct bool, responseTimeMs float64, now time.Time) {
	r.TotalAttempts++
	if correct {
		r.CorrectAttempts++
	}
	r.LastAttemptDate = now
	// Running mean over all attempts.
	r.AverageResponseTimeMs += (responseTimeMs - r.AverageResponseTimeMs) / float64(r.TotalAttempts)
}

// AppendAdjustment appends a difficulty adjustment entry, evicting the
// oldest entry once the history exceeds its cap.
func (r *Record) AppendAdjustment(a Adjustment) {
	r.AdjustmentHistory = append(r.AdjustmentHistory, a)
	if len(r.AdjustmentHistory) > AdjustmentHistoryCap {
		r.AdjustmentHistory = r.AdjustmentHistory[len(r.AdjustmentHistory)-AdjustmentHistoryCap:]
	}
}

// clampDifficulty clamps a difficulty value to [0, 100].
func clampDifficulty(d float64) float64 {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}
