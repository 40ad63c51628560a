package handler

import (
	"net/http"

	"github.com/vidiria/verilo-ai/internal/events"
	"github.com/vidiria/verilo-ai/internal/store"
)

// HealthHandler handles health and readiness endpoints.
type HealthHandler struct {
	repo      store.Repository
	publisher *events.Publisher
}

// NewHealthHandler creates a new health handler. Both dependencies are
// optional; nil ones are skipped by the readiness check.
func NewHealthHandler(repo store.Repository, publisher *events.Publisher) *HealthHandler {
	return &HealthHandler{repo: repo, publisher: publisher}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	if h.publisher != nil && !h.publisher.IsConnected() {
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
