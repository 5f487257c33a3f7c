// internal/api/learning_handler.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/studyloop/engine/internal/domain/mastery"
	"github.com/studyloop/engine/internal/domain/session"
	"github.com/studyloop/engine/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type ProcessAnswerRequest struct {
	EventID        string                 `json:"event_id,omitempty"`
	ConceptID      string                 `json:"concept_id"`
	ConceptType    string                 `json:"concept_type"`
	IsCorrect      bool                   `json:"is_correct"`
	ResponseTimeMs float64                `json:"response_time_ms"`
	Context        *service.AnswerContext `json:"context,omitempty"`
}

type MasteryRecordResponse struct {
	UserID                string               `json:"user_id"`
	ConceptID             string               `json:"concept_id"`
	ConceptType           string               `json:"concept_type"`
	EasinessFactor        float64              `json:"easiness_factor"`
	IntervalDays          int                  `json:"interval_days"`
	Repetition            int                  `json:"repetition"`
	NextReviewDate        time.Time            `json:"next_review_date"`
	TotalAttempts         int                  `json:"total_attempts"`
	CorrectAttempts       int                  `json:"correct_attempts"`
	LastAttemptDate       *time.Time           `json:"last_attempt_date,omitempty"`
	AverageResponseTimeMs float64              `json:"average_response_time_ms"`
	MasteryLevel          string               `json:"mastery_level"`
	CurrentDifficulty     float64              `json:"current_difficulty"`
	AdjustmentHistory     []mastery.Adjustment `json:"adjustment_history,omitempty"`
}

func recordResponse(rec *mastery.Record) MasteryRecordResponse {
	resp := MasteryRecordResponse{
		UserID:                rec.UserID,
		ConceptID:             rec.ConceptID,
		ConceptType:           rec.ConceptType,
		EasinessFactor:        rec.EasinessFactor,
		IntervalDays:          rec.IntervalDays,
		Repetition:            rec.Repetition,
		NextReviewDate:        rec.NextReviewDate,
		TotalAttempts:         rec.TotalAttempts,
		CorrectAttempts:       rec.CorrectAttempts,
		AverageResponseTimeMs: rec.AverageResponseTimeMs,
		MasteryLevel:          string(rec.MasteryLevel),
		CurrentDifficulty:     rec.CurrentDifficulty,
		AdjustmentHistory:     rec.AdjustmentHistory,
	}
	if !rec.LastAttemptDate.IsZero() {
		t := rec.LastAttemptDate
		resp.LastAttemptDate = &t
	}
	return resp
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /users/{userID}/answers
func (h *Handler) processAnswer(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req ProcessAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ConceptID == "" {
		http.Error(w, "concept_id is required", http.StatusBadRequest)
		return
	}
	if req.EventID == "" {
		// No idempotency key supplied; mint one so a gateway retry of
		// this exact response is still safe to replay manually.
		req.EventID = uuid.NewString()
	}

	rec, err := h.engine.ProcessAnswer(r.Context(), service.AnswerEvent{
		EventID:        req.EventID,
		UserID:         userID,
		ConceptID:      req.ConceptID,
		ConceptType:    req.ConceptType,
		Correct:        req.IsCorrect,
		ResponseTimeMs: req.ResponseTimeMs,
		Context:        req.Context,
	})
	if h.handleStoreError(w, err, "mastery record") {
		return
	}

	answersProcessed.Inc()
	respondJSON(w, http.StatusOK, recordResponse(rec))
}

// GET /users/{userID}/due?limit=20&priority=overdue
func (h *Handler) getDueItems(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	priority := mastery.Priority(r.URL.Query().Get("priority"))
	switch priority {
	case "":
		priority = mastery.PriorityAll
	case mastery.PriorityOverdue, mastery.PriorityDueToday, mastery.PriorityUpcoming, mastery.PriorityAll:
	default:
		http.Error(w, "priority must be one of overdue, due_today, upcoming, all", http.StatusBadRequest)
		return
	}

	records, err := h.engine.GetDueItems(r.Context(), userID, limit, priority)
	if h.handleStoreError(w, err, "due items") {
		return
	}

	response := make([]MasteryRecordResponse, len(records))
	for i, rec := range records {
		response[i] = recordResponse(rec)
	}
	respondJSON(w, http.StatusOK, response)
}

// POST /users/{userID}/sessions/plan
type GeneratePlanRequest struct {
	SessionType     string              `json:"session_type"`
	DurationMinutes int                 `json:"duration_minutes"`
	Options         session.PlanOptions `json:"options"`
}

func (h *Handler) generateSessionPlan(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req GeneratePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sessionType := session.Type(req.SessionType)
	switch sessionType {
	case session.TypeReview, session.TypeLearning, session.TypeMixed, session.TypeAssessment:
	default:
		http.Error(w, "session_type must be one of review, learning, mixed, assessment", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes <= 0 {
		http.Error(w, "duration_minutes must be positive", http.StatusBadRequest)
		return
	}

	plan, err := h.engine.GenerateSessionPlan(r.Context(), userID, sessionType, req.DurationMinutes, req.Options)
	if h.handleStoreError(w, err, "session plan") {
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// POST /users/{userID}/difficulty/adapt
type AdaptDifficultyRequest struct {
	Performance mastery.SessionPerformance `json:"current_performance"`
	Context     service.SessionContext     `json:"session_context"`
}

type AdaptDifficultyResponse struct {
	NewDifficulty float64  `json:"new_difficulty"`
	Adjustment    float64  `json:"adjustment"`
	Reasoning     []string `json:"reasoning"`
}

func (h *Handler) adaptDifficulty(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req AdaptDifficultyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	adj, err := h.engine.AdaptDifficulty(r.Context(), userID, req.Performance, req.Context)
	if h.handleStoreError(w, err, "difficulty adjustment") {
		return
	}
	respondJSON(w, http.StatusOK, AdaptDifficultyResponse{
		NewDifficulty: adj.NewDifficulty,
		Adjustment:    adj.Delta,
		Reasoning:     adj.Reasoning,
	})
}

// GET /users/{userID}/concepts/{conceptID}/prediction?concept_type=question
func (h *Handler) getPrediction(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	conceptID := r.PathValue("conceptID")
	conceptType := r.URL.Query().Get("concept_type")

	pred, err := h.engine.GetPerformancePrediction(r.Context(), userID, conceptID, conceptType)
	if h.handleStoreError(w, err, "prediction") {
		return
	}
	respondJSON(w, http.StatusOK, pred)
}
