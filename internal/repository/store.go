package repository

import (
	"context"
	"errors"
	"fmt"

	"vroom/internal/config"
	"vroom/internal/model"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Load when a session has no stored conversation
var ErrNotFound = errors.New("conversation not found")

// ConversationStore persists chat history and state per session
type ConversationStore interface {
	Load(ctx context.Context, sessionID string) (*model.Conversation, error)
	Save(ctx context.Context, conv *model.Conversation) error
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// Open builds the store selected by cfg.Driver
func Open(cfg *config.StorageConfig, logger zerolog.Logger) (ConversationStore, error) {
	switch cfg.Driver {
	case "", "memory":
		logger.Info().Msg("using in-memory conversation store")
		return NewMemoryStore(), nil
	case "sqlite":
		store, err := NewSQLStore("sqlite3", cfg.DSN, cfg.MaxConnections, cfg.MaxIdleConnections, cfg.TTL())
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", "sqlite").Msg("connected conversation store")
		return store, nil
	case "postgres":
		store, err := NewSQLStore("postgres", cfg.DSN, cfg.MaxConnections, cfg.MaxIdleConnections, cfg.TTL())
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", "postgres").Msg("connected conversation store")
		return store, nil
	case "redis":
		store, err := NewRedisStore(cfg.RedisURL, cfg.RedisPrefix, cfg.TTL())
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", "redis").Str("prefix", cfg.RedisPrefix).Msg("connected conversation store")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
