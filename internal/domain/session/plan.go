package session

import "time"

// Type identifies the kind of practice session being planned.
type Type string

const (
	TypeReview     Type = "review"
	TypeLearning   Type = "learning"
	TypeMixed      Type = "mixed"
	TypeAssessment Type = "assessment"
)

// Validity is how long a generated plan may be served before it must be
// discarded and regenerated.
const Validity = 2 * time.Hour

// Distribution is the target share of easy/medium/hard questions,
// expressed as percentages summing to 100.
type Distribution struct {
	Easy   int `json:"easy" yaml:"easy"`
	Medium int `json:"medium" yaml:"medium"`
	Hard   int `json:"hard" yaml:"hard"`
}

// PlanOptions are the caller-supplied knobs for plan generation.
type PlanOptions struct {
	Topics          []string `json:"topics,omitempty"`
	DifficultyMode  string   `json:"difficulty_mode,omitempty"`
	NewContentRatio *float64 `json:"new_content_ratio,omitempty"`
}

// Item is one planned question slot.
type Item struct {
	ConceptID   string  `json:"concept_id"`
	ConceptType string  `json:"concept_type"`
	Difficulty  float64 `json:"difficulty"`
	IsNew       bool    `json:"is_new"`
}

// Plan is a time-boxed, ordered selection of concepts for one practice
// sitting. It is ephemeral: once ValidUntil passes it must be regenerated,
// and it is never a source of truth.
type Plan struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Type            Type         `json:"session_type"`
	DurationMinutes int          `json:"duration_minutes"`
	TargetQuestions int          `json:"target_questions"`
	Items           []Item       `json:"items"`
	Distribution    Distribution `json:"difficulty_distribution"`
	NewContentRatio float64      `json:"new_content_ratio"`
	BreakIndices    []int        `json:"break_indices"`
	CreatedAt       time.Time    `json:"created_at"`
	ValidUntil      time.Time    `json:"valid_until"`
}

// Expired reports whether the plan's validity window has passed.
func (p *Plan) Expired(now time.Time) bool {
	return now.After(p.ValidUntil)
}
