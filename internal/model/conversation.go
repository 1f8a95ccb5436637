package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Conversation is the durable chat record for one session
type Conversation struct {
	SessionID      string            `json:"session_id" db:"session_id"`
	Messages       MessageLog        `json:"messages" db:"messages"`
	State          ConversationState `json:"state" db:"state"`
	ResizeHintSeen bool              `json:"resize_hint_seen" db:"resize_hint_seen"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// MessageLog is an ordered chat log stored as a JSON column
type MessageLog []Message

// Value implements driver.Valuer interface
func (m MessageLog) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (m *MessageLog) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// Value implements driver.Valuer interface
func (s ConversationState) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (s *ConversationState) Scan(value interface{}) error {
	return scanJSON(value, s)
}

func scanJSON(value interface{}, target interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, target)
	case string:
		return json.Unmarshal([]byte(v), target)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}
