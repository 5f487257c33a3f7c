package mastery

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// AdapterParams holds the fixed thresholds of the difficulty adapter.
// Injected at construction, immutable afterwards.
type AdapterParams struct {
	TargetAccuracy   float64 // accuracy the difficulty setting steers toward
	AccuracyBand     float64 // dead zone around the target
	StepSize         float64 // long-term difficulty step per adjustment
	RaiseMinAttempts int     // attempts required before raising difficulty
	LowerMinAttempts int     // attempts required before lowering difficulty
	OptimalLatencyMs float64 // reference latency for the speed factor
}

// DefaultAdapterParams returns the production thresholds.
func DefaultAdapterParams() AdapterParams {
	return AdapterParams{
		TargetAccuracy:   0.75,
		AccuracyBand:     0.10,
		StepSize:         5,
		RaiseMinAttempts: 5,
		LowerMinAttempts: 3,
		OptimalLatencyMs: DefaultAverageLatencyMs,
	}
}

// Adapter adjusts a concept's difficulty setting from observed performance.
//
// It carries two deliberately separate mechanisms: a slow per-concept
// adjustment persisted on the record (AdjustLongTerm) and a fast per-session
// adjustment that is never persisted (AdjustSession). They overlap on
// purpose and must not be merged.
type Adapter struct {
	params AdapterParams
}

// NewAdapter creates an adapter with the given thresholds.
func NewAdapter(p AdapterParams) *Adapter {
	return &Adapter{params: p}
}

// AdjustLongTerm nudges the record's difficulty toward the target accuracy
// and logs the change in the adjustment history. Returns true if the
// difficulty changed. Runs after every answer.
func (a *Adapter) AdjustLongTerm(rec *Record, now time.Time) bool {
	if rec.TotalAttempts == 0 {
		return false
	}
	accuracy := rec.Accuracy()

	var reason string
	next := rec.CurrentDifficulty
	switch {
	case accuracy > a.params.TargetAccuracy+a.params.AccuracyBand && rec.TotalAttempts >= a.params.RaiseMinAttempts:
		next += a.params.StepSize
		reason = "high accuracy"
	case accuracy < a.params.TargetAccuracy-a.params.AccuracyBand && rec.TotalAttempts >= a.params.LowerMinAttempts:
		next -= a.params.StepSize
		reason = "low accuracy"
	default:
		return false
	}

	next = clampDifficulty(next)
	if next == rec.CurrentDifficulty {
		return false
	}

	confidence := float64(rec.TotalAttempts) / 10 * 100
	if confidence > 100 {
		confidence = 100
	}
	rec.AppendAdjustment(Adjustment{
		Date:             now,
		Before:           rec.CurrentDifficulty,
		After:            next,
		Reason:           reason,
		Accuracy:         accuracy,
		AverageLatencyMs: rec.AverageResponseTimeMs,
		Confidence:       confidence,
	})
	rec.CurrentDifficulty = next
	return true
}

// SessionPerformance captures a user's rolling performance within one
// practice session.
type SessionPerformance struct {
	Accuracy          float64 // fraction correct so far
	AverageLatencyMs  float64
	CurrentStreak     int
	QuestionsAnswered int
}

// SessionAdjustment is the outcome of a short-term difficulty adaptation.
// It is request-scoped and never written back to a record.
type SessionAdjustment struct {
	NewDifficulty float64
	Delta         float64
	Reasoning     []string
}

// AdjustSession combines accuracy, speed, streak, and confidence signals
// into one bounded difficulty delta for the current session.
func (a *Adapter) AdjustSession(currentDifficulty float64, perf SessionPerformance) SessionAdjustment {
	accuracyFactor := (perf.Accuracy - a.params.TargetAccuracy) * 20
	if accuracyFactor > 10 {
		accuracyFactor = 10
	}
	if accuracyFactor < -10 {
		accuracyFactor = -10
	}

	var speedFactor float64
	switch {
	case perf.AverageLatencyMs < 0.5*a.params.OptimalLatencyMs:
		speedFactor = 2
	case perf.AverageLatencyMs < a.params.OptimalLatencyMs:
		speedFactor = 1
	case perf.AverageLatencyMs < 2*a.params.OptimalLatencyMs:
		speedFactor = 0
	default:
		speedFactor = -1
	}

	streakFactor := float64(perf.CurrentStreak)
	if streakFactor > 5 {
		streakFactor = 5
	}

	confidenceFactor := float64(perf.QuestionsAnswered) / 10
	if confidenceFactor > 1 {
		confidenceFactor = 1
	}

	delta := confidenceFactor * stat.Mean([]float64{accuracyFactor, speedFactor, streakFactor}, nil)

	maxDelta := 10.0
	if perf.QuestionsAnswered > 5 {
		maxDelta = 15.0
	}
	if delta > maxDelta {
		delta = maxDelta
	}
	if delta < -maxDelta {
		delta = -maxDelta
	}

	return SessionAdjustment{
		NewDifficulty: clampDifficulty(currentDifficulty + delta),
		Delta:         delta,
		Reasoning: []string{
			fmt.Sprintf("accuracy factor %.1f (session accuracy %.0f%%)", accuracyFactor, perf.Accuracy*100),
			fmt.Sprintf("speed factor %.0f", speedFactor),
			fmt.Sprintf("streak factor %.0f", streakFactor),
			fmt.Sprintf("confidence %.0f%% after %d questions", confidenceFactor*100, perf.QuestionsAnswered),
		},
	}
}
