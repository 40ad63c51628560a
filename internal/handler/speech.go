package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vidiria/verilo-ai/internal/middleware"
	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/internal/provider"
	"github.com/vidiria/verilo-ai/internal/speech"
	"github.com/vidiria/verilo-ai/pkg/logger"
	"github.com/vidiria/verilo-ai/pkg/metrics"
)

// SpeechHandler handles the speech synthesis endpoint.
type SpeechHandler struct {
	synthesizer *speech.Synthesizer
	logger      *logger.Logger
}

// NewSpeechHandler creates a new speech handler.
func NewSpeechHandler(synth *speech.Synthesizer, log *logger.Logger) *SpeechHandler {
	return &SpeechHandler{synthesizer: synth, logger: log}
}

// Synthesize handles POST /api/v1/speech
//
// The upstream audio stream is copied straight through to the client without
// buffering the full response.
func (h *SpeechHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	if h.synthesizer == nil {
		writeError(w, http.StatusServiceUnavailable, "speech synthesis is not configured")
		return
	}

	var req model.SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if err := middleware.ValidateVoice(req.Voice); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := h.synthesizer.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		var upstream *provider.UpstreamError
		switch {
		case errors.Is(err, speech.ErrEmptyText):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &upstream):
			writeError(w, http.StatusBadGateway, upstream.Error())
		default:
			h.logger.Error("speech synthesis failed")
			writeError(w, http.StatusBadGateway, "speech synthesis failed")
		}
		return
	}
	defer stream.Close()

	metrics.SpeechStreamsActive.Inc()
	defer metrics.SpeechStreamsActive.Dec()

	w.Header().Set("Content-Type", "audio/mpeg")
	if _, err := io.Copy(w, stream); err != nil {
		// Headers are gone; nothing left to do but note the broken pipe.
		h.logger.Warn("speech stream interrupted")
	}
}
