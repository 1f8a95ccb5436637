package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vroom/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each conversation as one JSON value with a sliding TTL
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis using a redis:// URL
func NewRedisStore(redisURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return NewRedisStoreFromClient(redis.NewClient(opt), prefix, ttl)
}

// NewRedisStoreFromClient wraps an existing client, pinging it first
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if prefix == "" {
		prefix = "vroom:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + "conv:" + sessionID
}

// Load retrieves a session's conversation
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*model.Conversation, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(val, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &conv, nil
}

// Save stores a session's conversation and refreshes its TTL
func (s *RedisStore) Save(ctx context.Context, conv *model.Conversation) error {
	row := *conv
	row.UpdatedAt = time.Now().UTC()

	val, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := s.client.Set(ctx, s.key(conv.SessionID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear removes a session's conversation
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
