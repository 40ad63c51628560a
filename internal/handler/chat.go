// Package handler exposes the gateway's HTTP endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidiria/verilo-ai/internal/middleware"
	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/internal/provider"
	"github.com/vidiria/verilo-ai/internal/service"
	"github.com/vidiria/verilo-ai/internal/store"
	"github.com/vidiria/verilo-ai/pkg/logger"
)

// ChatHandler handles the turn submission endpoint.
type ChatHandler struct {
	exchangeService *service.ExchangeService
	defaultModel    string
	logger          *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(exchangeSvc *service.ExchangeService, defaultModel string, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		exchangeService: exchangeSvc,
		defaultModel:    defaultModel,
		logger:          log,
	}
}

// SendTurn handles POST /api/v1/chat
func (h *ChatHandler) SendTurn(w http.ResponseWriter, r *http.Request) {
	var req model.SendTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateAttachmentCount(len(req.Attachments)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Model == "" {
		req.Model = h.defaultModel
	}

	resp, err := h.exchangeService.SendTurn(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage),
			errors.Is(err, provider.ErrUnsupportedModel):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrExchangeInFlight),
			errors.Is(err, service.ErrTurnSuperseded):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
		default:
			h.logger.Error("failed to process turn")
			writeError(w, http.StatusInternalServerError, "failed to process turn")
		}
		return
	}

	// A failed exchange is still a completed HTTP interaction: the
	// transcript advanced and the body carries the error detail.
	writeJSON(w, http.StatusOK, resp)
}
