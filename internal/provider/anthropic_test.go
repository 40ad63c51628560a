package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidiria/verilo-ai/internal/model"
)

// anthropicWireRequest mirrors the fields of the outgoing messages call that
// the tests assert on.
type anthropicWireRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func newAnthropicTestServer(t *testing.T, captured *anthropicWireRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg-1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-7-sonnet",
			"content":     []map[string]any{{"type": "text", "text": "Brasília."}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
	}))
}

func TestNewAnthropicAdapterRequiresKey(t *testing.T) {
	_, err := NewAnthropicAdapter("")
	require.Error(t, err)
}

func TestAnthropicAdapterComplete(t *testing.T) {
	var captured anthropicWireRequest
	server := newAnthropicTestServer(t, &captured)
	defer server.Close()

	adapter, err := NewAnthropicAdapter("test-key", option.WithBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := adapter.Complete(context.Background(), &Request{
		Model: "claude-3-7-sonnet",
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "Qual a capital do Brasil?"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", resp.ID)
	assert.Equal(t, "Brasília.", resp.Text)

	assert.Equal(t, "claude-3-7-sonnet", captured.Model)
	assert.Equal(t, 4096, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)

	require.Len(t, captured.System, 1)
	assert.Equal(t, persona, captured.System[0].Text)

	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	require.Len(t, captured.Messages[0].Content, 1)
	assert.Equal(t, "Qual a capital do Brasil?", captured.Messages[0].Content[0].Text)
}

func TestAnthropicAdapterExtendedAppendsInstruction(t *testing.T) {
	var captured anthropicWireRequest
	server := newAnthropicTestServer(t, &captured)
	defer server.Close()

	adapter, err := NewAnthropicAdapter("test-key", option.WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = adapter.Complete(context.Background(), &Request{
		Model:    "claude-3-7-sonnet",
		Extended: true,
		Messages: []model.Message{{Role: model.RoleUser, Content: "analise"}},
	})
	require.NoError(t, err)

	require.Len(t, captured.System, 1)
	assert.Equal(t, persona+extendedInstruction, captured.System[0].Text)
	// Extended mode changes only the system text for this family.
	assert.Equal(t, 4096, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)
}

func TestAttachmentBlocksInlineImage(t *testing.T) {
	blocks := attachmentBlocks([]model.Attachment{
		{Name: "foto.png", MimeType: "image/png", Data: "aGVsbG8="},
	})

	require.Len(t, blocks, 1)
	img, ok := blocks[0].(anthropic.ImageBlockParam)
	require.True(t, ok)
	assert.Equal(t, "aGVsbG8=", img.Source.Value.Data.Value)
	assert.Equal(t, anthropic.ImageBlockParamSourceMediaType("image/png"), img.Source.Value.MediaType.Value)
}

func TestAttachmentBlocksNonImageBecomesText(t *testing.T) {
	blocks := attachmentBlocks([]model.Attachment{
		{Name: "doc.pdf", MimeType: "application/pdf", URL: "/uploads/doc.pdf"},
		{Name: "foto.png", MimeType: "image/png", URL: "https://example.com/foto.png"},
	})

	require.Len(t, blocks, 2)

	text, ok := blocks[0].(anthropic.TextBlockParam)
	require.True(t, ok)
	assert.Equal(t, "[Anexo: doc.pdf (application/pdf) /uploads/doc.pdf]", text.Text.Value)

	// An image without inline data cannot be sent as a base64 block.
	_, ok = blocks[1].(anthropic.TextBlockParam)
	assert.True(t, ok)
}
