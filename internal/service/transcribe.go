package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/vidiria/verilo-ai/internal/job"
	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/internal/provider"
	"github.com/vidiria/verilo-ai/pkg/logger"
	"github.com/vidiria/verilo-ai/pkg/metrics"
)

// postProcessModel formats raw transcripts into conversational text.
const postProcessModel = "grok-3"

// TranscribeService runs the transcription pipeline: spool the upload,
// submit and poll the prediction job, then post-process the transcript with
// the single-prompt provider.
type TranscribeService struct {
	jobs     *job.Client
	registry *provider.Registry
	policy   job.Policy
	logger   *logger.Logger
}

// NewTranscribeService creates the transcription pipeline.
func NewTranscribeService(jobs *job.Client, registry *provider.Registry, policy job.Policy, log *logger.Logger) *TranscribeService {
	return &TranscribeService{jobs: jobs, registry: registry, policy: policy, logger: log}
}

// Transcribe converts uploaded audio to processed text. The upload is
// spooled to a temporary file that is removed once polling resolves, whether
// or not the job succeeded.
func (s *TranscribeService) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	tmp, err := os.CreateTemp("", "verilo-audio-*")
	if err != nil {
		return "", fmt.Errorf("failed to spool audio: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, audio); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to spool audio: %w", err)
	}
	tmp.Close()

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read spooled audio: %w", err)
	}

	jobID, err := s.jobs.Submit(ctx, data, mimeType)
	if err != nil {
		metrics.TranscriptionJobsTotal.WithLabelValues("submit_error").Inc()
		return "", err
	}

	text, err := s.jobs.AwaitResult(ctx, jobID, s.policy)
	if err != nil {
		metrics.TranscriptionJobsTotal.WithLabelValues(jobResult(err)).Inc()
		return "", err
	}
	metrics.TranscriptionJobsTotal.WithLabelValues("succeeded").Inc()

	formatted := FormatVINTRA(text, time.Now())

	processed, err := s.registry.Complete(ctx, &provider.Request{
		Model: postProcessModel,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: formatted},
		},
	})
	if err != nil {
		s.logger.Warn("transcript post-processing failed",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return "", err
	}

	return processed.Text, nil
}

// FormatVINTRA stamps a raw transcript with the VINTRA framing expected by
// the post-processing prompt.
func FormatVINTRA(transcript string, at time.Time) string {
	return fmt.Sprintf("[%s] VINTRA: %s", at.Format("15:04:05"), transcript)
}

func jobResult(err error) string {
	switch {
	case errors.Is(err, job.ErrTimeout):
		return "timeout"
	case errors.Is(err, job.ErrJobFailed):
		return "failed"
	default:
		return "poll_error"
	}
}
