// Package content defines the boundary to the question/content system.
// The engine only needs concept identities for the new-content share of a
// session plan; resolving them to actual question content happens elsewhere.
package content

import "context"

// Concept is the minimal identity the planner needs for an unseen concept.
type Concept struct {
	ID         string
	Type       string
	Topic      string
	Difficulty float64
}

// Provider supplies concepts the user has not practiced yet.
type Provider interface {
	// NewConcepts returns up to limit concepts the user has no mastery
	// record for, optionally restricted to the given topics.
	NewConcepts(ctx context.Context, userID string, topics []string, limit int) ([]Concept, error)
}

// StaticProvider serves new concepts from a fixed in-memory pool. It stands
// in for the real content system in tests and local development.
type StaticProvider struct {
	pool []Concept
}

// NewStaticProvider creates a provider over the given concept pool.
func NewStaticProvider(pool []Concept) *StaticProvider {
	return &StaticProvider{pool: pool}
}

func (p *StaticProvider) NewConcepts(ctx context.Context, userID string, topics []string, limit int) ([]Concept, error) {
	var out []Concept
	for _, c := range p.pool {
		if len(topics) > 0 && !matchesTopic(c.Topic, topics) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func matchesTopic(topic string, topics []string) bool {
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}
