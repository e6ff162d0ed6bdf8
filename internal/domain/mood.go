package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MoodLog records the classified mood of one user turn, best-effort.
type MoodLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
}

// MoodRepository defines the interface for mood log storage
type MoodRepository interface {
	Create(ctx context.Context, entry *MoodLog) error
}
