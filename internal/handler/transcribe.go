package handler

import (
	"errors"
	"net/http"

	"github.com/vidiria/verilo-ai/internal/job"
	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/internal/service"
	"github.com/vidiria/verilo-ai/pkg/logger"
)

// TranscribeHandler handles the audio transcription endpoint.
type TranscribeHandler struct {
	transcribeService *service.TranscribeService
	maxUploadSize     int64
	logger            *logger.Logger
}

// NewTranscribeHandler creates a new transcription handler.
func NewTranscribeHandler(transcribeSvc *service.TranscribeService, maxUploadSize int64, log *logger.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		transcribeService: transcribeSvc,
		maxUploadSize:     maxUploadSize,
		logger:            log,
	}
}

// Transcribe handles POST /api/v1/transcribe (multipart, field "file")
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no audio file provided")
		return
	}
	defer file.Close()

	text, err := h.transcribeService.Transcribe(r.Context(), file, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, job.ErrTimeout):
			writeError(w, http.StatusGatewayTimeout, "transcription timed out")
		case errors.Is(err, job.ErrJobFailed), errors.Is(err, job.ErrSubmission):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			h.logger.Error("transcription failed")
			writeError(w, http.StatusBadGateway, "transcription failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, &model.TranscribeResponse{
		Text:     text,
		Language: "pt",
	})
}
