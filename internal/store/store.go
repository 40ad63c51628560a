// Package store maintains ordered conversation history and memory notes,
// persisting both between sessions.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/pkg/logger"
	"github.com/vidiria/verilo-ai/pkg/metrics"
)

var (
	// ErrConversationNotFound is returned for unknown conversation ids.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrEmptyContent is returned when a user message has no content.
	ErrEmptyContent = errors.New("message content is required")
)

const titleMaxRunes = 30

// Store holds conversations in memory and flushes them to the repository on
// each commit. All mutation flows through the exchange service's single
// control flow per conversation; the mutex only guards cross-conversation
// access.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*model.Conversation
	capacity      int
	openID        string
	repo          Repository
	logger        *logger.Logger
}

// NewStore creates a store bounded to capacity conversations. Previously
// persisted state is loaded from repo when one is configured; a load failure
// starts the session empty rather than failing startup.
func NewStore(ctx context.Context, capacity int, repo Repository, log *logger.Logger) *Store {
	s := &Store{
		conversations: make(map[string]*model.Conversation),
		capacity:      capacity,
		repo:          repo,
		logger:        log,
	}

	if repo != nil {
		persisted, err := repo.LoadConversations(ctx)
		if err != nil {
			log.Warn("failed to load persisted conversations", zap.Error(err))
		} else {
			for i := range persisted {
				conv := persisted[i]
				s.conversations[conv.ID] = &conv
			}
		}
	}

	return s
}

// NewConversation creates an empty conversation and marks it open.
func (s *Store) NewConversation(modelID string) *model.Conversation {
	now := time.Now()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ModelID:   modelID,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.openID = conv.ID
	s.mu.Unlock()

	snapshot := *conv
	return &snapshot
}

// Open marks a conversation as the one currently in use, shielding it from
// eviction.
func (s *Store) Open(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return ErrConversationNotFound
	}
	s.openID = conversationID
	return nil
}

// Append adds a message to a conversation's ordered list.
func (s *Store) Append(conversationID string, msg model.Message) error {
	if msg.Role == model.RoleUser && msg.Content == "" {
		return ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	return nil
}

// Commit upserts the conversation record after a completed exchange: the
// title is re-derived from the first user message, the capacity bound is
// enforced and the full list is flushed to the repository. A persistence
// failure is downgraded to a warning; in-memory state stays valid.
func (s *Store) Commit(ctx context.Context, conversationID string) error {
	s.mu.Lock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return ErrConversationNotFound
	}

	if first := firstUserMessage(conv.Messages); first != nil {
		conv.Title = DeriveTitle(first.Content)
	}
	conv.UpdatedAt = time.Now()

	s.evictLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return nil
}

// Get returns a copy of one conversation.
func (s *Store) Get(conversationID string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	snapshot := *conv
	snapshot.Messages = append([]model.Message(nil), conv.Messages...)
	return &snapshot, nil
}

// List returns all conversations, most recently updated first.
func (s *Store) List() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Delete removes a conversation and flushes the change.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()

	if _, ok := s.conversations[conversationID]; !ok {
		s.mu.Unlock()
		return ErrConversationNotFound
	}
	delete(s.conversations, conversationID)
	if s.openID == conversationID {
		s.openID = ""
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return nil
}

// DeriveTitle truncates content to a fixed rune prefix with an ellipsis
// marker.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "..."
}

// evictLocked drops least-recently-updated conversations, never the open
// one, until the capacity bound holds.
func (s *Store) evictLocked() {
	for len(s.conversations) > s.capacity {
		var oldest *model.Conversation
		for _, conv := range s.conversations {
			if conv.ID == s.openID {
				continue
			}
			if oldest == nil || conv.UpdatedAt.Before(oldest.UpdatedAt) {
				oldest = conv
			}
		}
		if oldest == nil {
			return
		}
		delete(s.conversations, oldest.ID)
		metrics.ConversationsEvictedTotal.Inc()
		s.logger.Info("conversation evicted",
			zap.String("conversation_id", oldest.ID),
			zap.Time("updated_at", oldest.UpdatedAt),
		)
	}
}

func (s *Store) snapshotLocked() []model.Conversation {
	out := make([]model.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		c := *conv
		c.Messages = append([]model.Message(nil), conv.Messages...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (s *Store) persist(ctx context.Context, snapshot []model.Conversation) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveConversations(ctx, snapshot); err != nil {
		metrics.StoreWriteFailuresTotal.WithLabelValues("conversations").Inc()
		s.logger.Warn("failed to persist conversations", zap.Error(err))
	}
}

func firstUserMessage(messages []model.Message) *model.Message {
	for i := range messages {
		if messages[i].Role == model.RoleUser {
			return &messages[i]
		}
	}
	return nil
}
