package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/pkg/logger"
	"github.com/vidiria/verilo-ai/pkg/metrics"
)

// Memories holds the Penseira notes: free-form title/content pairs, upserted
// by title, capacity-bounded with oldest-first eviction.
type Memories struct {
	mu       sync.Mutex
	notes    []model.Memory
	capacity int
	repo     Repository
	logger   *logger.Logger
}

// NewMemories creates the note collection, loading persisted notes when a
// repository is configured.
func NewMemories(ctx context.Context, capacity int, repo Repository, log *logger.Logger) *Memories {
	m := &Memories{capacity: capacity, repo: repo, logger: log}

	if repo != nil {
		persisted, err := repo.LoadMemories(ctx)
		if err != nil {
			log.Warn("failed to load persisted memories", zap.Error(err))
		} else {
			m.notes = persisted
		}
	}

	return m
}

// Upsert inserts a note or replaces the existing note with the same title.
func (m *Memories) Upsert(ctx context.Context, note model.Memory) model.Memory {
	m.mu.Lock()

	note.UpdatedAt = time.Now()

	replaced := false
	for i := range m.notes {
		if m.notes[i].Title == note.Title {
			note.ID = m.notes[i].ID
			m.notes[i] = note
			replaced = true
			break
		}
	}
	if !replaced {
		if note.ID == "" {
			note.ID = uuid.Must(uuid.NewV7()).String()
		}
		m.notes = append(m.notes, note)
	}

	for len(m.notes) > m.capacity {
		m.notes = m.notes[1:]
	}

	snapshot := append([]model.Memory(nil), m.notes...)
	m.mu.Unlock()

	if m.repo != nil {
		if err := m.repo.SaveMemories(ctx, snapshot); err != nil {
			metrics.StoreWriteFailuresTotal.WithLabelValues("memories").Inc()
			m.logger.Warn("failed to persist memories", zap.Error(err))
		}
	}

	return note
}

// List returns all notes in insertion order.
func (m *Memories) List() []model.Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Memory(nil), m.notes...)
}
