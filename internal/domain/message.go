package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents a single turn in a chat. Messages are immutable once
// persisted; a failed write is retried as a whole, never partially applied.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	ChatID    uuid.UUID   `json:"chat_id"`
	UserID    uuid.UUID   `json:"user_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	// CreateBatch inserts all messages in a single round trip so the
	// (user, assistant) pair of one exchange is never interleaved with
	// another exchange's turns for the same chat.
	CreateBatch(ctx context.Context, messages []Message) error
	ListByChat(ctx context.Context, chatID uuid.UUID, limit int) ([]Message, error)
}
