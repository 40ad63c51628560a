package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vidiria/verilo-ai/internal/middleware"
	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/internal/store"
	"github.com/vidiria/verilo-ai/pkg/logger"
)

// MemoryHandler handles Penseira memory note endpoints.
type MemoryHandler struct {
	memories *store.Memories
	logger   *logger.Logger
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(memories *store.Memories, log *logger.Logger) *MemoryHandler {
	return &MemoryHandler{memories: memories, logger: log}
}

// List handles GET /api/v1/memories
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	notes := h.memories.List()
	writeJSON(w, http.StatusOK, &model.ListMemoriesResponse{
		Memories: notes,
		Total:    len(notes),
	})
}

// Upsert handles PUT /api/v1/memories
func (h *MemoryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var note model.Memory
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTitle(note.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved := h.memories.Upsert(r.Context(), note)
	writeJSON(w, http.StatusOK, saved)
}
