package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vidiria/verilo-ai/internal/model"
)

const (
	conversationsKey = "verilo:conversations"
	memoriesKey      = "verilo:penseira"
)

// RedisRepository stores each collection as one JSON array under one key.
type RedisRepository struct {
	rdb *redis.Client
}

// NewRedisRepository creates a repository over an existing Redis client.
func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

// SaveConversations overwrites the persisted conversation list.
func (r *RedisRepository) SaveConversations(ctx context.Context, conversations []model.Conversation) error {
	return r.save(ctx, conversationsKey, conversations)
}

// LoadConversations reads the persisted conversation list.
func (r *RedisRepository) LoadConversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := r.load(ctx, conversationsKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveMemories overwrites the persisted memory notes.
func (r *RedisRepository) SaveMemories(ctx context.Context, memories []model.Memory) error {
	return r.save(ctx, memoriesKey, memories)
}

// LoadMemories reads the persisted memory notes.
func (r *RedisRepository) LoadMemories(ctx context.Context) ([]model.Memory, error) {
	var out []model.Memory
	if err := r.load(ctx, memoriesKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping reports backend reachability for readiness checks.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisRepository) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) load(ctx context.Context, key string, v any) error {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}
