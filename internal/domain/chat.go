package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Chat represents a conversation thread between a user and the coach
type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRepository defines the interface for chat storage
type ChatRepository interface {
	Create(ctx context.Context, chat *Chat) error
	Get(ctx context.Context, id uuid.UUID) (*Chat, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]Chat, error)
	UpsertPreview(ctx context.Context, id uuid.UUID, preview string, updatedAt time.Time) error
}
