// internal/service/planner.go
package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/studyloop/engine/internal/domain/mastery"
	"github.com/studyloop/engine/internal/domain/session"
	"github.com/studyloop/engine/internal/store"
)

// PlannerConfig is the fixed tuning table for session planning.
type PlannerConfig struct {
	QuestionsPerMinute float64                            // default pace when no velocity history exists
	MinVelocity        float64                            // clamps for the velocity-adjusted pace
	MaxVelocity        float64                            //
	MaxDueItems        int                                // cap on the due pool fetched per plan
	BreakEveryMinutes  int                                // target spacing between break points
	OverdueBacklog     int                                // backlog size that shifts a mixed session toward review
	Distributions      map[session.Type]session.Distribution
}

// DefaultPlannerConfig returns the production planning table.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		QuestionsPerMinute: 2,
		MinVelocity:        1,
		MaxVelocity:        4,
		MaxDueItems:        50,
		BreakEveryMinutes:  15,
		OverdueBacklog:     10,
		Distributions: map[session.Type]session.Distribution{
			session.TypeReview:     {Easy: 30, Medium: 50, Hard: 20},
			session.TypeLearning:   {Easy: 40, Medium: 45, Hard: 15},
			session.TypeMixed:      {Easy: 30, Medium: 50, Hard: 20},
			session.TypeAssessment: {Easy: 20, Medium: 50, Hard: 30},
		},
	}
}

// defaultDistribution applies when a session type has no table entry.
var defaultDistribution = session.Distribution{Easy: 30, Medium: 50, Hard: 20}

// GenerateSessionPlan assembles a time-boxed practice set for the user.
// Plans are cached until their validity window passes; an expired plan is
// regenerated transparently. Returning fewer items than requested is a
// normal outcome, not an error.
func (s *LearningService) GenerateSessionPlan(ctx context.Context, userID string, sessionType session.Type, durationMinutes int, opts session.PlanOptions) (*session.Plan, error) {
	if userID == "" {
		return nil, fmt.Errorf("generate plan: user id is required")
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("generate plan: duration must be positive, got %d", durationMinutes)
	}
	now := s.now()

	key := planCacheKey(userID, sessionType, durationMinutes, opts)
	if cached, ok := s.plans.Get(key); ok {
		plan := cached.(*session.Plan)
		if !plan.Expired(now) {
			return plan, nil
		}
	}

	// Due pool and account aggregates are independent reads.
	var (
		records []*mastery.Record
		stats   *store.AccountStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.store.QueryRecords(gctx, userID, 0)
		if err != nil {
			return fmt.Errorf("query records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = s.store.AccountStats(gctx, userID)
		if err != nil {
			return fmt.Errorf("account stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	duePool := mastery.FilterDue(records, now, mastery.PriorityAll)
	if len(duePool) > s.planner.MaxDueItems {
		duePool = duePool[:s.planner.MaxDueItems]
	}
	overdue := 0
	for _, r := range duePool {
		if r.IsOverdue(now) {
			overdue++
		}
	}

	rate := s.planner.QuestionsPerMinute
	if stats.StudyVelocity > 0 {
		rate = clampFloat(stats.StudyVelocity, s.planner.MinVelocity, s.planner.MaxVelocity)
	}
	targetQuestions := int(float64(durationMinutes) * rate)
	if targetQuestions < 1 {
		targetQuestions = 1
	}

	ratio := s.newContentRatio(sessionType, opts, overdue)

	// Review share first: the due pool is already ordered overdue-first.
	reviewTarget := int(math.Floor(float64(targetQuestions) * (1 - ratio)))
	items := make([]session.Item, 0, targetQuestions)
	seen := make(map[string]bool)
	for _, rec := range duePool {
		if len(items) >= reviewTarget {
			break
		}
		if seen[rec.ConceptID] {
			continue
		}
		seen[rec.ConceptID] = true
		items = append(items, session.Item{
			ConceptID:   rec.ConceptID,
			ConceptType: rec.ConceptType,
			Difficulty:  rec.CurrentDifficulty,
			IsNew:       false,
		})
	}

	// Fill the remainder with unseen concepts.
	if remaining := targetQuestions - len(items); remaining > 0 {
		fresh, err := s.content.NewConcepts(ctx, userID, opts.Topics, remaining)
		if err != nil {
			return nil, fmt.Errorf("fetch new concepts: %w", err)
		}
		for _, c := range fresh {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			difficulty := c.Difficulty
			if difficulty == 0 {
				difficulty = mastery.DefaultDifficulty
			}
			items = append(items, session.Item{
				ConceptID:   c.ID,
				ConceptType: c.Type,
				Difficulty:  difficulty,
				IsNew:       true,
			})
		}
	}

	// Presentation order: difficulty is monotonically non-decreasing
	// across the session.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Difficulty < items[j].Difficulty
	})

	plan := &session.Plan{
		ID:              uuid.NewString(),
		UserID:          userID,
		Type:            sessionType,
		DurationMinutes: durationMinutes,
		TargetQuestions: targetQuestions,
		Items:           items,
		Distribution:    s.distributionFor(sessionType, opts.DifficultyMode),
		NewContentRatio: ratio,
		BreakIndices:    breakIndices(len(items), rate, s.planner.BreakEveryMinutes),
		CreatedAt:       now,
		ValidUntil:      now.Add(session.Validity),
	}

	s.plans.Set(key, plan, session.Validity)
	s.logger.Info("session plan generated",
		"user_id", userID, "type", sessionType,
		"items", len(items), "target", targetQuestions, "new_ratio", ratio)
	return plan, nil
}

// newContentRatio resolves the share of unseen concepts for the session.
func (s *LearningService) newContentRatio(t session.Type, opts session.PlanOptions, overdue int) float64 {
	if opts.NewContentRatio != nil {
		return clampFloat(*opts.NewContentRatio, 0, 1)
	}
	switch t {
	case session.TypeReview:
		return 0.2
	case session.TypeLearning:
		return 0.8
	case session.TypeMixed:
		if overdue > s.planner.OverdueBacklog {
			return 0.3
		}
		return 0.5
	case session.TypeAssessment:
		return 0
	default:
		return 0.5
	}
}

// distributionFor looks up the per-type difficulty distribution and applies
// the optional difficulty mode: "challenge" shifts 10 points from easy to
// hard, "comfort" shifts them back.
func (s *LearningService) distributionFor(t session.Type, mode string) session.Distribution {
	dist, ok := s.planner.Distributions[t]
	if !ok {
		dist = defaultDistribution
	}
	switch mode {
	case "challenge":
		dist.Easy -= 10
		dist.Hard += 10
	case "comfort":
		dist.Easy += 10
		dist.Hard -= 10
	}
	if dist.Easy < 0 {
		dist.Medium += dist.Easy
		dist.Easy = 0
	}
	if dist.Hard < 0 {
		dist.Medium += dist.Hard
		dist.Hard = 0
	}
	return dist
}

// breakIndices places a break roughly every breakMinutes of estimated
// session time.
func breakIndices(itemCount int, rate float64, breakMinutes int) []int {
	perBreak := int(float64(breakMinutes) * rate)
	if perBreak < 1 {
		perBreak = 1
	}
	var breaks []int
	for i := perBreak; i < itemCount; i += perBreak {
		breaks = append(breaks, i)
	}
	return breaks
}

func planCacheKey(userID string, t session.Type, duration int, opts session.PlanOptions) string {
	parts := []string{userID, string(t), strconv.Itoa(duration), opts.DifficultyMode}
	if opts.NewContentRatio != nil {
		parts = append(parts, strconv.FormatFloat(*opts.NewContentRatio, 'f', 2, 64))
	}
	if len(opts.Topics) > 0 {
		parts = append(parts, strings.Join(opts.Topics, ","))
	}
	return strings.Join(parts, "|")
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
