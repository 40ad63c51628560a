package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidiria/verilo-ai/internal/middleware"
	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/internal/service"
	"github.com/vidiria/verilo-ai/internal/store"
	"github.com/vidiria/verilo-ai/pkg/logger"
)

// ConversationHandler handles conversation history endpoints.
type ConversationHandler struct {
	store           *store.Store
	exchangeService *service.ExchangeService
	logger          *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(st *store.Store, exchangeSvc *service.ExchangeService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		store:           st,
		exchangeService: exchangeSvc,
		logger:          log,
	}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	conversations := h.store.List()
	writeJSON(w, http.StatusOK, &model.ListConversationsResponse{
		Conversations: conversations,
		Total:         len(conversations),
	})
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	// Opening a conversation shields it from eviction and makes it the
	// target of subsequent turns without an explicit id.
	if err := h.store.Open(id); err != nil && !errors.Is(err, store.ErrConversationNotFound) {
		h.logger.Error("failed to open conversation")
	}

	writeJSON(w, http.StatusOK, conv)
}

// Delete handles DELETE /api/v1/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles POST /api/v1/conversations/{id}/cancel
//
// Cancellation abandons the in-flight exchange; the provider response, if it
// ever arrives, is discarded by the turn-token check.
func (h *ConversationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.exchangeService.Cancel(id)
	w.WriteHeader(http.StatusNoContent)
}
