package store

import (
	"context"

	"github.com/vidiria/verilo-ai/internal/model"
)

// Repository persists the two collections between sessions. Each collection
// is stored whole, as one ordered JSON array under one key, mirroring the
// client-side storage layout this service replaced.
type Repository interface {
	SaveConversations(ctx context.Context, conversations []model.Conversation) error
	LoadConversations(ctx context.Context) ([]model.Conversation, error)
	SaveMemories(ctx context.Context, memories []model.Memory) error
	LoadMemories(ctx context.Context) ([]model.Memory, error)
	Ping(ctx context.Context) error
}
