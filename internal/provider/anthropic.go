package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vidiria/verilo-ai/internal/model"
)

const (
	// persona is the fixed system instruction for the system-prompt family.
	persona = "Você é o Verilo, um assistente pessoal avançado que combina diferentes modelos de IA."
	// extendedInstruction is appended to the persona in extended mode.
	extendedInstruction = " Use o modo Extended Thinking para fornecer respostas mais detalhadas e analíticas."

	systemPromptMaxTokens = 4096
)

// AnthropicAdapter is the system-prompt family adapter (Claude models).
type AnthropicAdapter struct {
	client *anthropic.Client
}

// NewAnthropicAdapter creates a new system-prompt adapter.
func NewAnthropicAdapter(apiKey string, opts ...option.RequestOption) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicAdapter{client: anthropic.NewClient(opts...)}, nil
}

// Family returns the adapter's backend family.
func (a *AnthropicAdapter) Family() Family {
	return FamilySystemPrompt
}

// Complete sends a system-prompt request.
func (a *AnthropicAdapter) Complete(ctx context.Context, req *Request) (*Response, error) {
	system := persona
	if req.Extended {
		system += extendedInstruction
	}

	lastUser := lastUserIndex(req.Messages)

	messages := make([]anthropic.MessageParam, len(req.Messages))
	for i, msg := range req.Messages {
		blocks := []anthropic.ContentBlockParamUnion{
			anthropic.TextBlockParam{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(msg.Content),
			},
		}
		if i == lastUser {
			blocks = append(blocks, attachmentBlocks(msg.Atts)...)
		}
		messages[i] = anthropic.MessageParam{
			Role:    anthropic.F(anthropic.MessageParamRole(msg.Role)),
			Content: anthropic.F(blocks),
		}
	}

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(req.Model),
		MaxTokens: anthropic.F(int64(systemPromptMaxTokens)),
		System: anthropic.F([]anthropic.TextBlockParam{{
			Type: anthropic.F(anthropic.TextBlockParamTypeText),
			Text: anthropic.F(system),
		}}),
		Messages:    anthropic.F(messages),
		Temperature: anthropic.F(0.7),
	})
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text += block.Text
		}
	}

	return &Response{ID: resp.ID, Text: text}, nil
}

// attachmentBlocks converts attachments to content blocks: inline image
// blocks for base64 image payloads, descriptive text blocks otherwise.
func attachmentBlocks(atts []model.Attachment) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, att := range atts {
		if att.IsImage() && att.Data != "" {
			blocks = append(blocks, anthropic.ImageBlockParam{
				Type: anthropic.F(anthropic.ImageBlockParamTypeImage),
				Source: anthropic.F(anthropic.ImageBlockParamSource{
					Type:      anthropic.F(anthropic.ImageBlockParamSourceTypeBase64),
					MediaType: anthropic.F(anthropic.ImageBlockParamSourceMediaType(att.MimeType)),
					Data:      anthropic.F(att.Data),
				}),
			})
			continue
		}
		blocks = append(blocks, anthropic.TextBlockParam{
			Type: anthropic.F(anthropic.TextBlockParamTypeText),
			Text: anthropic.F(attachmentLine(att)),
		})
	}
	return blocks
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.StatusCode, Detail: apiErr.Error()}
	}
	return fmt.Errorf("provider request failed: %w", err)
}
