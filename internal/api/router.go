// internal/api/router.go
package api

import "net/http"

// RegisterRoutes wires the engine's operations onto the mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /users/{userID}/answers", h.processAnswer)
	mux.HandleFunc("GET /users/{userID}/due", h.getDueItems)
	mux.HandleFunc("POST /users/{userID}/sessions/plan", h.generateSessionPlan)
	mux.HandleFunc("POST /users/{userID}/difficulty/adapt", h.adaptDifficulty)
	mux.HandleFunc("GET /users/{userID}/concepts/{conceptID}/prediction", h.getPrediction)
}
