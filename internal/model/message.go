// Package model defines data structures for the Verilo gateway.
package model

import (
	"strings"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one turn in a conversation.
type Message struct {
	ID        string       `json:"id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Atts      []Attachment `json:"attachments,omitempty"`
	CreatedAt time.Time    `json:"created_at"`

	// LLM metadata, set on assistant messages only.
	Model     *string `json:"model,omitempty"`
	TokensIn  *int    `json:"tokens_in,omitempty"`
	LatencyMs *int64  `json:"latency_ms,omitempty"`
}

// Attachment is a file attached to an outgoing user message. Payload is
// either inline base64 data or an external URL, never both.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"type"`
	URL      string `json:"url,omitempty"`
	Data     string `json:"data,omitempty"`
}

// IsImage reports whether the attachment carries image content.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

// SendTurnRequest is the request body for submitting one exchange.
type SendTurnRequest struct {
	ConversationID string       `json:"conversation_id,omitempty"`
	Message        string       `json:"message"`
	Model          string       `json:"model,omitempty"`
	Extended       bool         `json:"extended"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// SendTurnResponse is returned once an exchange reaches a terminal state.
type SendTurnResponse struct {
	ConversationID string   `json:"conversation_id"`
	UserMessage    *Message `json:"user_message"`
	Reply          *Message `json:"reply"`
	Failed         bool     `json:"failed"`
	Error          string   `json:"error,omitempty"`
}

// TranscribeResponse carries the processed transcript of an audio upload.
type TranscribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// SynthesizeRequest is the request body for speech synthesis.
type SynthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}
