package model

import (
	"time"
)

// Conversation is one persisted, titled sequence of user/assistant turns.
// Owned by the store; mutated only through the exchange service.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ModelID   string    `json:"model_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListConversationsResponse is the response for listing conversations,
// most recently updated first.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
