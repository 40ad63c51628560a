package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/pkg/logger"
)

func newTestMemories(t *testing.T, capacity int, repo Repository) *Memories {
	t.Helper()
	return NewMemories(context.Background(), capacity, repo, logger.NewNop())
}

func TestMemoriesUpsertInserts(t *testing.T) {
	m := newTestMemories(t, 10, nil)

	note := m.Upsert(context.Background(), model.Memory{Title: "Aniversário", Content: "12 de março"})
	assert.NotEmpty(t, note.ID)
	assert.False(t, note.UpdatedAt.IsZero())

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Aniversário", list[0].Title)
}

func TestMemoriesUpsertReplacesByTitleKeepingID(t *testing.T) {
	m := newTestMemories(t, 10, nil)

	first := m.Upsert(context.Background(), model.Memory{Title: "Endereço", Content: "Rua A"})
	second := m.Upsert(context.Background(), model.Memory{Title: "Endereço", Content: "Rua B"})

	assert.Equal(t, first.ID, second.ID)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Rua B", list[0].Content)
}

func TestMemoriesCapacityTrimsOldest(t *testing.T) {
	m := newTestMemories(t, 3, nil)

	for i := 0; i < 5; i++ {
		m.Upsert(context.Background(), model.Memory{
			Title:   fmt.Sprintf("nota %d", i),
			Content: "conteúdo",
		})
	}

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, "nota 2", list[0].Title)
	assert.Equal(t, "nota 4", list[2].Title)
}

func TestMemoriesPersistAndReload(t *testing.T) {
	repo := &fakeRepository{}
	m := newTestMemories(t, 10, repo)
	m.Upsert(context.Background(), model.Memory{Title: "Preferência", Content: "respostas curtas"})

	reloaded := newTestMemories(t, 10, repo)
	list := reloaded.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Preferência", list[0].Title)
}

func TestMemoriesPersistenceFailureKeepsNote(t *testing.T) {
	repo := &fakeRepository{failWrites: true}
	m := newTestMemories(t, 10, repo)

	m.Upsert(context.Background(), model.Memory{Title: "Nota", Content: "conteúdo"})
	assert.Len(t, m.List(), 1)
}
