package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vidiria/verilo-ai/internal/model"
)

const singlePromptMaxTokens = 4096

// displayNames replaces wire roles in the flattened transcript.
var displayNames = map[model.Role]string{
	model.RoleUser:      "Você",
	model.RoleAssistant: "Verilo",
}

// GrokAdapter is the single-prompt family adapter (Grok models). The backend
// has no structured chat or attachment concept, so the whole conversation is
// flattened into one labeled transcript sent as a single prompt.
type GrokAdapter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGrokAdapter creates a new single-prompt adapter.
func NewGrokAdapter(apiKey, baseURL string) (*GrokAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("xAI API key is required")
	}
	return &GrokAdapter{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}, nil
}

// Family returns the adapter's backend family.
func (a *GrokAdapter) Family() Family {
	return FamilySinglePrompt
}

type grokMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type grokRequest struct {
	Model       string        `json:"model"`
	Messages    []grokMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type grokResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error json.RawMessage `json:"error"`
}

// Complete flattens the conversation and sends it as one prompt.
func (a *GrokAdapter) Complete(ctx context.Context, req *Request) (*Response, error) {
	temperature := 0.9
	if req.Extended {
		temperature = 0.7
	}

	body, err := json.Marshal(grokRequest{
		Model:       req.Model,
		Messages:    []grokMessage{{Role: "user", Content: flattenTranscript(req.Messages)}},
		MaxTokens:   singlePromptMaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: upstreamDetail(raw)}
	}

	var parsed grokResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	return &Response{ID: parsed.ID, Text: parsed.Choices[0].Message.Content}, nil
}

// flattenTranscript renders one line per message with display-name labels,
// preserving order, then appends descriptive lines for the attachments of
// the final user message.
func flattenTranscript(messages []model.Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		name, ok := displayNames[msg.Role]
		if !ok {
			name = string(msg.Role)
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}

	if last := lastUserIndex(messages); last >= 0 {
		for _, att := range messages[last].Atts {
			b.WriteByte('\n')
			b.WriteString(attachmentLine(att))
		}
	}

	return b.String()
}

// upstreamDetail extracts a human-readable detail from an error body.
func upstreamDetail(raw []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	detail := strings.TrimSpace(string(raw))
	if len(detail) > 256 {
		detail = detail[:256]
	}
	return detail
}
