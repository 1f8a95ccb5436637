package repository

import (
	"context"
	"sync"
	"time"

	"vroom/internal/model"
)

// MemoryStore keeps conversations in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]model.Conversation
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]model.Conversation)}
}

// Load returns a copy of the stored conversation
func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyConversation(conv), nil
}

// Save stores a copy of conv
func (s *MemoryStore) Save(ctx context.Context, conv *model.Conversation) error {
	c := copyConversation(*conv)
	c.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.convs[conv.SessionID] = *c
	s.mu.Unlock()
	return nil
}

// Clear removes a session's conversation
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.convs, sessionID)
	s.mu.Unlock()
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func copyConversation(c model.Conversation) *model.Conversation {
	out := c
	out.Messages = append(model.MessageLog(nil), c.Messages...)
	out.State = c.State.Clone()
	return &out
}
