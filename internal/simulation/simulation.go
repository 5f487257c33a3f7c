// simulation/simulation.go
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/studyloop/engine/internal/domain/mastery"
	"github.com/studyloop/engine/internal/domain/session"
	"github.com/studyloop/engine/internal/service"
	"github.com/studyloop/engine/internal/worker"
)

// learnerProfile shapes a synthetic user's answer stream.
type learnerProfile struct {
	userID      string
	skill       float64 // probability of a correct answer
	baseLatency float64 // mean response time in ms
}

type answerOutcome struct {
	userID string
	err    error
}

// Run replays synthetic learners through the engine: a burst of answer
// events processed on a worker pool, followed by a session plan and a
// prediction per learner. Useful to eyeball scheduling behavior against a
// scratch database.
func Run(ctx context.Context, engine *service.LearningService, answersPerUser int, logger *slog.Logger) error {
	profiles := []learnerProfile{
		{userID: "sim-strong", skill: 0.9, baseLatency: 12000},
		{userID: "sim-average", skill: 0.7, baseLatency: 25000},
		{userID: "sim-struggling", skill: 0.4, baseLatency: 45000},
	}
	concepts := []string{"vpc-routing", "iam-policies", "s3-lifecycle", "ec2-autoscaling", "rds-failover"}

	pool := worker.NewPool[answerOutcome](len(profiles), len(profiles)*answersPerUser)

	// One job per learner keeps each user's read-modify-write sequence
	// ordered while learners run concurrently.
	for _, p := range profiles {
		p := p
		pool.Submit(p.userID, func() answerOutcome {
			for i := 0; i < answersPerUser; i++ {
				conceptID := concepts[i%len(concepts)]
				correct := rand.Float64() < p.skill
				latency := p.baseLatency * (0.6 + 0.8*rand.Float64())

				_, err := engine.ProcessAnswer(ctx, service.AnswerEvent{
					EventID:        uuid.NewString(),
					UserID:         p.userID,
					ConceptID:      conceptID,
					ConceptType:    "question",
					Correct:        correct,
					ResponseTimeMs: latency,
				})
				if err != nil {
					return answerOutcome{userID: p.userID, err: fmt.Errorf("answer %d: %w", i, err)}
				}
			}
			return answerOutcome{userID: p.userID}
		})
	}
	pool.Close()

	for result := range pool.Results() {
		if result.Output.err != nil {
			return fmt.Errorf("learner %s: %w", result.Output.userID, result.Output.err)
		}
		logger.Info("learner replay complete", "user_id", result.Output.userID, "answers", answersPerUser)
	}

	for _, p := range profiles {
		plan, err := engine.GenerateSessionPlan(ctx, p.userID, session.TypeMixed, 30, session.PlanOptions{})
		if err != nil {
			return fmt.Errorf("plan for %s: %w", p.userID, err)
		}

		due, err := engine.GetDueItems(ctx, p.userID, 10, mastery.PriorityAll)
		if err != nil {
			return fmt.Errorf("due items for %s: %w", p.userID, err)
		}

		pred, err := engine.GetPerformancePrediction(ctx, p.userID, concepts[0], "question")
		if err != nil {
			return fmt.Errorf("prediction for %s: %w", p.userID, err)
		}

		logger.Info("learner summary",
			"user_id", p.userID,
			"plan_items", len(plan.Items),
			"due_items", len(due),
			"predicted_accuracy", fmt.Sprintf("%.1f", pred.PredictedAccuracy),
			"recommended_action", pred.RecommendedAction,
		)
	}
	return nil
}
