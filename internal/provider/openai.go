package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const chatCompletionBaseTokens = 2048

// OpenAIAdapter is the chat-completion family adapter (GPT models).
type OpenAIAdapter struct {
	client *openai.Client
}

// NewOpenAIAdapter creates a new chat-completion adapter.
func NewOpenAIAdapter(apiKey string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	return &OpenAIAdapter{client: openai.NewClient(apiKey)}, nil
}

// NewOpenAIAdapterWithConfig creates an adapter against a custom endpoint,
// used by tests.
func NewOpenAIAdapterWithConfig(cfg openai.ClientConfig) *OpenAIAdapter {
	return &OpenAIAdapter{client: openai.NewClientWithConfig(cfg)}
}

// Family returns the adapter's backend family.
func (a *OpenAIAdapter) Family() Family {
	return FamilyChatCompletion
}

// Complete sends a chat completion request.
func (a *OpenAIAdapter) Complete(ctx context.Context, req *Request) (*Response, error) {
	resp, err := a.client.CreateChatCompletion(ctx, buildChatCompletionRequest(req))
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	return &Response{
		ID:   resp.ID,
		Text: resp.Choices[0].Message.Content,
	}, nil
}

// buildChatCompletionRequest shapes the normalized request for the
// chat-completion wire format. The token budget doubles in extended mode and
// the retrieval tool is attached to enable deep analysis.
func buildChatCompletionRequest(req *Request) openai.ChatCompletionRequest {
	maxTokens := req.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = chatCompletionBaseTokens
	}
	if req.Extended {
		maxTokens *= 2
	}

	lastUser := lastUserIndex(req.Messages)

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		if i == lastUser && len(msg.Atts) > 0 {
			// Promote plain content to structured parts so image
			// attachments ride along as inline blocks.
			parts := []openai.ChatMessagePart{{
				Type: openai.ChatMessagePartTypeText,
				Text: msg.Content,
			}}
			for _, att := range msg.Atts {
				if att.IsImage() {
					parts = append(parts, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: attachmentPayloadURL(att),
						},
					})
				} else {
					parts = append(parts, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeText,
						Text: attachmentLine(att),
					})
				}
			}
			messages[i] = openai.ChatCompletionMessage{
				Role:         string(msg.Role),
				MultiContent: parts,
			}
			continue
		}

		messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	out := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	}

	if req.Extended {
		out.Tools = []openai.Tool{{Type: openai.ToolType("retrieval")}}
		out.ToolChoice = "auto"
	}

	return out
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.HTTPStatusCode, Detail: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Detail: reqErr.Error()}
	}
	return fmt.Errorf("provider request failed: %w", err)
}
