package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vidiria/verilo-ai/pkg/logger"
)

// errorBody is the envelope for all error responses.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response. Encoding failures after the header
// has been sent can only be logged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Global().Warn("failed to encode response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
