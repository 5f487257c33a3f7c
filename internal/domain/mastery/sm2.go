package mastery

import (
	"math"
	"time"
)

// SM2Params holds the fixed coefficients of the SM-2 transition. They are
// injected at construction and never mutated afterwards.
type SM2Params struct {
	MinEasinessFactor  float64
	MaxEasinessFactor  float64
	MinIntervalDays    int
	MaxIntervalDays    int
	FirstIntervalDays  int // interval after the first successful repetition
	SecondIntervalDays int // interval after the second successful repetition
}

// DefaultSM2Params returns the canonical SM-2 constants.
func DefaultSM2Params() SM2Params {
	return SM2Params{
		MinEasinessFactor:  MinEasinessFactor,
		MaxEasinessFactor:  MaxEasinessFactor,
		MinIntervalDays:    MinIntervalDays,
		MaxIntervalDays:    MaxIntervalDays,
		FirstIntervalDays:  1,
		SecondIntervalDays: 6,
	}
}

// SM2 computes spaced-repetition state transitions from recall quality grades.
type SM2 struct {
	params SM2Params
}

// NewSM2 creates a scheduler with the given parameters.
func NewSM2(p SM2Params) *SM2 {
	return &SM2{params: p}
}

// Apply runs one SM-2 transition on the record for quality grade g (0–5).
//
// The transition is not idempotent: applying it twice for the same answer
// event moves the state twice. Callers must deduplicate answer events by
// event id before invoking it.
func (s *SM2) Apply(rec *Record, g int, now time.Time) {
	if g >= 3 {
		// Successful recall: interval grows based on the repetition count
		// *before* this answer.
		switch rec.Repetition {
		case 0:
			rec.IntervalDays = s.params.FirstIntervalDays
		case 1:
			rec.IntervalDays = s.params.SecondIntervalDays
		default:
			rec.IntervalDays = int(math.Round(float64(rec.IntervalDays) * rec.EasinessFactor))
		}
		rec.Repetition++
	} else {
		// Failed recall: restart the repetition sequence.
		rec.Repetition = 0
		rec.IntervalDays = s.params.MinIntervalDays
	}

	q := float64(g)
	rec.EasinessFactor += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if rec.EasinessFactor < s.params.MinEasinessFactor {
		rec.EasinessFactor = s.params.MinEasinessFactor
	}
	if rec.EasinessFactor > s.params.MaxEasinessFactor {
		rec.EasinessFactor = s.params.MaxEasinessFactor
	}

	if rec.IntervalDays < s.params.MinIntervalDays {
		rec.IntervalDays = s.params.MinIntervalDays
	}
	if rec.IntervalDays > s.params.MaxIntervalDays {
		rec.IntervalDays = s.params.MaxIntervalDays
	}

	rec.NextReviewDate = now.AddDate(0, 0, rec.IntervalDays)
}
