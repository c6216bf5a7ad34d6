package store

import (
	"encoding/json"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"` // Nullable
	CreatedAt time.Time `json:"created_at"`
}

// Document is only a lookup key for retrieval; its content is never read.
type Document struct {
	ID        string    `json:"id"` // UUID
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	URI       *string   `json:"uri"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID          string    `json:"id"` // UUID
	UserID      int64     `json:"user_id"`
	Title       *string   `json:"title"`
	Mode        string    `json:"mode"` // "open_chat" or "rag"
	DocumentIDs []string  `json:"document_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Message struct {
	ID             int64           `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"` // "user" or "assistant"
	Content        string          `json:"content"`
	TokensUsed     int             `json:"tokens_used"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
