// Package job drives submit-then-poll protocols for work whose result is not
// available synchronously, currently audio transcription via the Replicate
// predictions API.
package job

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vidiria/verilo-ai/pkg/logger"
	"github.com/vidiria/verilo-ai/pkg/metrics"
)

var (
	// ErrSubmission indicates the submit call itself did not return success.
	ErrSubmission = errors.New("job submission failed")
	// ErrJobFailed indicates the upstream reported terminal failure.
	ErrJobFailed = errors.New("job reported failure")
	// ErrTimeout indicates the poll ceiling was exceeded without resolution.
	ErrTimeout = errors.New("job polling timed out")
)

// Policy bounds the poll loop. Each attempt is one network round trip.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPolicy is a 30-second ceiling: 1-second interval, 30 attempts.
var DefaultPolicy = Policy{Interval: time.Second, MaxAttempts: 30}

// Client submits prediction jobs and polls them to resolution. It owns no
// job-input resources; callers release temporary inputs once AwaitResult
// returns or fails.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	version    string
	logger     *logger.Logger
}

// NewClient creates a prediction job client.
func NewClient(token, baseURL, version string, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		version:    version,
		logger:     log,
	}
}

type submitRequest struct {
	Version string      `json:"version"`
	Input   submitInput `json:"input"`
}

type submitInput struct {
	Task           string `json:"task"`
	Audio          string `json:"audio"`
	TargetLanguage string `json:"target_language"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Submit sends an audio transcription job and returns its id.
func (c *Client) Submit(ctx context.Context, audio []byte, mimeType string) (string, error) {
	payload := submitRequest{
		Version: c.version,
		Input: submitInput{
			Task:           "s2tt",
			Audio:          fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(audio)),
			TargetLanguage: "portuguese",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrSubmission, resp.StatusCode)
	}

	var pred prediction
	if err := json.Unmarshal(raw, &pred); err != nil || pred.ID == "" {
		return "", fmt.Errorf("%w: missing prediction id", ErrSubmission)
	}

	c.logger.Debug("transcription job submitted", zap.String("job_id", pred.ID))
	return pred.ID, nil
}

// AwaitResult polls job status on a fixed interval until resolution. It makes
// exactly pol.MaxAttempts polls before giving up with ErrTimeout.
func (c *Client) AwaitResult(ctx context.Context, jobID string, pol Policy) (string, error) {
	for attempt := 1; attempt <= pol.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pol.Interval):
		}

		metrics.PollAttemptsTotal.Inc()

		pred, err := c.poll(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch pred.Status {
		case "succeeded":
			return decodeOutput(pred.Output), nil
		case "failed":
			if pred.Error != "" {
				return "", fmt.Errorf("%w: %s", ErrJobFailed, pred.Error)
			}
			return "", ErrJobFailed
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrTimeout, pol.MaxAttempts)
}

func (c *Client) poll(ctx context.Context, jobID string) (*prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/predictions/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status poll failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status poll returned %d", resp.StatusCode)
	}

	var pred prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &pred, nil
}

// decodeOutput handles the two output shapes the backend produces: a plain
// string or an object carrying a text field.
func decodeOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != "" {
		return obj.Text
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
