package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidiria/verilo-ai/internal/job"
	"github.com/vidiria/verilo-ai/internal/provider"
	"github.com/vidiria/verilo-ai/pkg/logger"
)

// echoAdapter serves the single-prompt family and returns the prompt it was
// given, so tests can inspect what reached post-processing.
type echoAdapter struct {
	lastPrompt string
}

func (e *echoAdapter) Family() provider.Family { return provider.FamilySinglePrompt }

func (e *echoAdapter) Complete(_ context.Context, req *provider.Request) (*provider.Response, error) {
	e.lastPrompt = req.Messages[0].Content
	return &provider.Response{ID: "pp-1", Text: "transcrição formatada"}, nil
}

func TestFormatVINTRA(t *testing.T) {
	at := time.Date(2026, 8, 28, 14, 30, 5, 0, time.UTC)
	got := FormatVINTRA("texto bruto", at)
	assert.Equal(t, "[14:30:05] VINTRA: texto bruto", got)
}

func TestTranscribePipeline(t *testing.T) {
	submitted := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			submitted = true
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "succeeded", "output": "fala transcrita"})
	}))
	defer server.Close()

	adapter := &echoAdapter{}
	svc := NewTranscribeService(
		job.NewClient("token", server.URL, "v1", logger.NewNop()),
		provider.NewRegistry(adapter),
		job.Policy{Interval: time.Millisecond, MaxAttempts: 5},
		logger.NewNop(),
	)

	text, err := svc.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "audio/webm")
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, "transcrição formatada", text)

	// Post-processing receives the stamped transcript.
	assert.Contains(t, adapter.lastPrompt, "VINTRA: fala transcrita")
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] VINTRA: `, adapter.lastPrompt)
}

func TestTranscribePropagatesJobFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "failed", "error": "audio ilegível"})
	}))
	defer server.Close()

	svc := NewTranscribeService(
		job.NewClient("token", server.URL, "v1", logger.NewNop()),
		provider.NewRegistry(&echoAdapter{}),
		job.Policy{Interval: time.Millisecond, MaxAttempts: 5},
		logger.NewNop(),
	)

	_, err := svc.Transcribe(context.Background(), strings.NewReader("audio"), "audio/webm")
	require.ErrorIs(t, err, job.ErrJobFailed)
}
