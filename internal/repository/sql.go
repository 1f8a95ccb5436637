package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vroom/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const conversationsSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	session_id       TEXT PRIMARY KEY,
	messages         TEXT NOT NULL,
	state            TEXT NOT NULL,
	resize_hint_seen BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at       TIMESTAMP NOT NULL
)`

// SQLStore persists conversations in PostgreSQL or SQLite through sqlx
type SQLStore struct {
	db  *sqlx.DB
	ttl time.Duration
}

// NewSQLStore connects with the given driver ("postgres" or "sqlite3") and ensures the schema exists
func NewSQLStore(driver, dsn string, maxConn, maxIdleConn int, ttl time.Duration) (*SQLStore, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// single writer; also keeps ":memory:" databases on one connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(maxConn)
		db.SetMaxIdleConns(maxIdleConn)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(2 * time.Minute)
	}

	if _, err := db.Exec(conversationsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLStore{db: db, ttl: ttl}, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Load retrieves a session's conversation. Records idle longer than the TTL are treated as absent.
func (s *SQLStore) Load(ctx context.Context, sessionID string) (*model.Conversation, error) {
	query := s.db.Rebind(`
		SELECT session_id, messages, state, resize_hint_seen, updated_at
		FROM conversations
		WHERE session_id = ?
	`)

	var conv model.Conversation
	if err := s.db.GetContext(ctx, &conv, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if s.ttl > 0 && time.Since(conv.UpdatedAt) > s.ttl {
		return nil, ErrNotFound
	}
	return &conv, nil
}

// Save upserts a session's conversation
func (s *SQLStore) Save(ctx context.Context, conv *model.Conversation) error {
	row := *conv
	row.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO conversations (session_id, messages, state, resize_hint_seen, updated_at)
		VALUES (:session_id, :messages, :state, :resize_hint_seen, :updated_at)
		ON CONFLICT (session_id) DO UPDATE SET
			messages = excluded.messages,
			state = excluded.state,
			resize_hint_seen = excluded.resize_hint_seen,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Clear deletes a session's conversation
func (s *SQLStore) Clear(ctx context.Context, sessionID string) error {
	query := s.db.Rebind(`DELETE FROM conversations WHERE session_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	return nil
}

// Purge removes conversations idle since before the cutoff and reports how many were deleted
func (s *SQLStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	query := s.db.Rebind(`DELETE FROM conversations WHERE updated_at < ?`)
	res, err := s.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge conversations: %w", err)
	}
	return res.RowsAffected()
}
