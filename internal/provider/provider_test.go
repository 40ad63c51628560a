package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidiria/verilo-ai/internal/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		modelID string
		family  Family
		wantErr bool
	}{
		{"gpt-4o", FamilyChatCompletion, false},
		{"gpt-3.5-turbo", FamilyChatCompletion, false},
		{"claude-3-7-sonnet", FamilySystemPrompt, false},
		{"claude-3-opus", FamilySystemPrompt, false},
		{"grok-3", FamilySinglePrompt, false},
		{"grok-2-latest", FamilySinglePrompt, false},
		{"llama-3-70b", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			family, err := Resolve(tt.modelID)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedModel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.family, family)
		})
	}
}

func TestRegistryCompleteNoAdapter(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Complete(context.Background(), &Request{
		Model:    "gpt-4o",
		Messages: []model.Message{{Role: model.RoleUser, Content: "oi"}},
	})
	require.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestRegistryCompleteUnknownModel(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Complete(context.Background(), &Request{Model: "mistral-7b"})
	require.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestLastUserIndex(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Content: "primeira"},
		{Role: model.RoleAssistant, Content: "resposta"},
		{Role: model.RoleUser, Content: "segunda"},
		{Role: model.RoleAssistant, Content: "outra"},
	}
	assert.Equal(t, 2, lastUserIndex(messages))
	assert.Equal(t, -1, lastUserIndex(nil))
	assert.Equal(t, -1, lastUserIndex([]model.Message{{Role: model.RoleAssistant}}))
}

func TestAttachmentPayloadURL(t *testing.T) {
	withURL := model.Attachment{MimeType: "image/png", URL: "https://example.com/a.png", Data: "aWdub3JlZA=="}
	assert.Equal(t, "https://example.com/a.png", attachmentPayloadURL(withURL))

	inline := model.Attachment{MimeType: "image/jpeg", Data: "aGVsbG8="}
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", attachmentPayloadURL(inline))
}

func TestUpstreamErrorMessage(t *testing.T) {
	withDetail := &UpstreamError{Status: 429, Detail: "rate limited"}
	assert.Equal(t, "upstream returned status 429: rate limited", withDetail.Error())

	bare := &UpstreamError{Status: 503}
	assert.Equal(t, "upstream returned status 503", bare.Error())
}
