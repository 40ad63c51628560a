package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/pkg/logger"
)

// fakeRepository records saves in memory and can be set to fail writes.
type fakeRepository struct {
	conversations []model.Conversation
	memories      []model.Memory
	failWrites    bool
	saveCalls     int
}

func (f *fakeRepository) SaveConversations(_ context.Context, conversations []model.Conversation) error {
	f.saveCalls++
	if f.failWrites {
		return errors.New("connection refused")
	}
	f.conversations = conversations
	return nil
}

func (f *fakeRepository) LoadConversations(_ context.Context) ([]model.Conversation, error) {
	return f.conversations, nil
}

func (f *fakeRepository) SaveMemories(_ context.Context, memories []model.Memory) error {
	f.saveCalls++
	if f.failWrites {
		return errors.New("connection refused")
	}
	f.memories = memories
	return nil
}

func (f *fakeRepository) LoadMemories(_ context.Context) ([]model.Memory, error) {
	return f.memories, nil
}

func (f *fakeRepository) Ping(_ context.Context) error { return nil }

func newTestStore(t *testing.T, capacity int, repo Repository) *Store {
	t.Helper()
	return NewStore(context.Background(), capacity, repo, logger.NewNop())
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "Bom dia", "Bom dia"},
		{"exactly thirty runes", "123456789012345678901234567890", "123456789012345678901234567890"},
		{"truncated", "Esta é uma mensagem bastante longa que passa do limite", "Esta é uma mensagem bastante l..."},
		{"multibyte runes counted once", "ááááááááááááááááááááááááááááááá", "áááááááááááááááááááááááááááááá..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.content))
		})
	}
}

func TestAppendAndCommitDerivesTitle(t *testing.T) {
	s := newTestStore(t, 10, nil)
	conv := s.NewConversation("claude-3-7-sonnet")

	require.NoError(t, s.Append(conv.ID, model.Message{
		ID: "m1", Role: model.RoleUser, Content: "Qual a capital do Brasil?", CreatedAt: time.Now(),
	}))
	require.NoError(t, s.Append(conv.ID, model.Message{
		ID: "m2", Role: model.RoleAssistant, Content: "Brasília.", CreatedAt: time.Now(),
	}))
	require.NoError(t, s.Commit(context.Background(), conv.ID))

	got, err := s.Get(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Qual a capital do Brasil?", got.Title)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, model.RoleUser, got.Messages[0].Role)
	assert.Equal(t, model.RoleAssistant, got.Messages[1].Role)
}

func TestCommitIsIdempotent(t *testing.T) {
	repo := &fakeRepository{}
	s := newTestStore(t, 10, repo)
	conv := s.NewConversation("gpt-4o")

	require.NoError(t, s.Append(conv.ID, model.Message{ID: "m1", Role: model.RoleUser, Content: "oi"}))
	require.NoError(t, s.Append(conv.ID, model.Message{ID: "m2", Role: model.RoleAssistant, Content: "olá"}))

	require.NoError(t, s.Commit(context.Background(), conv.ID))
	require.NoError(t, s.Commit(context.Background(), conv.ID))

	// A repeated commit with an unchanged message list upserts the same
	// record, in memory and in the repository.
	assert.Len(t, s.List(), 1)
	require.Len(t, repo.conversations, 1)
	assert.Equal(t, conv.ID, repo.conversations[0].ID)
	assert.Len(t, repo.conversations[0].Messages, 2)
	assert.Equal(t, "oi", repo.conversations[0].Title)
}

func TestAppendRejectsEmptyUserContent(t *testing.T) {
	s := newTestStore(t, 10, nil)
	conv := s.NewConversation("gpt-4o")

	err := s.Append(conv.ID, model.Message{ID: "m1", Role: model.RoleUser})
	require.ErrorIs(t, err, ErrEmptyContent)

	got, err := s.Get(conv.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestAppendUnknownConversation(t *testing.T) {
	s := newTestStore(t, 10, nil)
	err := s.Append("missing", model.Message{Role: model.RoleUser, Content: "oi"})
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestListOrdersByRecency(t *testing.T) {
	s := newTestStore(t, 10, nil)

	first := s.NewConversation("gpt-4o")
	require.NoError(t, s.Append(first.ID, model.Message{ID: "m1", Role: model.RoleUser, Content: "primeira"}))
	require.NoError(t, s.Commit(context.Background(), first.ID))

	time.Sleep(2 * time.Millisecond)

	second := s.NewConversation("gpt-4o")
	require.NoError(t, s.Append(second.ID, model.Message{ID: "m2", Role: model.RoleUser, Content: "segunda"}))
	require.NoError(t, s.Commit(context.Background(), second.ID))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestEvictionDropsLeastRecentlyUpdated(t *testing.T) {
	s := newTestStore(t, 3, nil)

	var ids []string
	for i := 0; i < 4; i++ {
		conv := s.NewConversation("gpt-4o")
		require.NoError(t, s.Append(conv.ID, model.Message{
			ID: fmt.Sprintf("m%d", i), Role: model.RoleUser, Content: fmt.Sprintf("mensagem %d", i),
		}))
		require.NoError(t, s.Commit(context.Background(), conv.ID))
		ids = append(ids, conv.ID)
		time.Sleep(2 * time.Millisecond)
	}

	list := s.List()
	require.Len(t, list, 3)

	_, err := s.Get(ids[0])
	assert.ErrorIs(t, err, ErrConversationNotFound)
	for _, id := range ids[1:] {
		_, err := s.Get(id)
		assert.NoError(t, err)
	}
}

func TestEvictionSparesOpenConversation(t *testing.T) {
	s := newTestStore(t, 2, nil)

	oldest := s.NewConversation("gpt-4o")
	require.NoError(t, s.Append(oldest.ID, model.Message{ID: "m0", Role: model.RoleUser, Content: "antiga"}))
	require.NoError(t, s.Commit(context.Background(), oldest.ID))

	time.Sleep(2 * time.Millisecond)
	middle := s.NewConversation("gpt-4o")
	require.NoError(t, s.Append(middle.ID, model.Message{ID: "m1", Role: model.RoleUser, Content: "meio"}))
	require.NoError(t, s.Commit(context.Background(), middle.ID))

	// Reopen the oldest so it is the active one, then push a third
	// conversation over capacity.
	require.NoError(t, s.Open(oldest.ID))

	time.Sleep(2 * time.Millisecond)
	newest := s.NewConversation("gpt-4o")
	require.NoError(t, s.Append(newest.ID, model.Message{ID: "m2", Role: model.RoleUser, Content: "nova"}))

	// Committing the new conversation while it is open must not evict it;
	// reopen the oldest before the commit runs eviction.
	require.NoError(t, s.Open(oldest.ID))
	require.NoError(t, s.Commit(context.Background(), newest.ID))

	_, err := s.Get(oldest.ID)
	assert.NoError(t, err, "open conversation must never be evicted")
	_, err = s.Get(middle.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestCommitPersistenceFailureKeepsMemoryState(t *testing.T) {
	repo := &fakeRepository{failWrites: true}
	s := newTestStore(t, 10, repo)

	conv := s.NewConversation("gpt-4o")
	require.NoError(t, s.Append(conv.ID, model.Message{ID: "m1", Role: model.RoleUser, Content: "oi"}))
	require.NoError(t, s.Commit(context.Background(), conv.ID), "persistence failure must not fail the commit")

	got, err := s.Get(conv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
	assert.Equal(t, 1, repo.saveCalls)
}

func TestNewStoreLoadsPersistedConversations(t *testing.T) {
	repo := &fakeRepository{conversations: []model.Conversation{
		{ID: "c1", Title: "restaurada", ModelID: "gpt-4o", UpdatedAt: time.Now()},
	}}
	s := newTestStore(t, 10, repo)

	got, err := s.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "restaurada", got.Title)
}

func TestDelete(t *testing.T) {
	repo := &fakeRepository{}
	s := newTestStore(t, 10, repo)

	conv := s.NewConversation("gpt-4o")
	require.NoError(t, s.Delete(context.Background(), conv.ID))

	_, err := s.Get(conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Empty(t, repo.conversations)

	require.ErrorIs(t, s.Delete(context.Background(), conv.ID), ErrConversationNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	s := newTestStore(t, 10, nil)
	conv := s.NewConversation("gpt-4o")
	require.NoError(t, s.Append(conv.ID, model.Message{ID: "m1", Role: model.RoleUser, Content: "original"}))

	got, err := s.Get(conv.ID)
	require.NoError(t, err)
	got.Messages[0].Content = "mutado"

	again, err := s.Get(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
}
