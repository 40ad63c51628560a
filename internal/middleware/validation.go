package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// maxAttachmentsPerMessage bounds how many files one message may carry.
const maxAttachmentsPerMessage = 10

// ValidateAttachmentCount validates the number of attachments on one message.
func ValidateAttachmentCount(count int) error {
	if count > maxAttachmentsPerMessage {
		return errors.New("too many attachments")
	}
	return nil
}

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}

// ValidateTitle validates a memory note title.
func ValidateTitle(title string) error {
	if len(title) == 0 {
		return errors.New("title cannot be empty")
	}
	if len(title) > 256 {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// speechVoices are the voices the synthesis backend accepts.
var speechVoices = map[string]bool{
	"alloy":   true,
	"echo":    true,
	"fable":   true,
	"onyx":    true,
	"nova":    true,
	"shimmer": true,
}

// ValidateVoice validates a speech synthesis voice name. Empty means the
// configured default.
func ValidateVoice(voice string) error {
	if voice == "" {
		return nil
	}
	if !speechVoices[voice] {
		return errors.New("unknown voice")
	}
	return nil
}
