package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProgressLog is a durable record of one completed exchange. It is the unit
// of streak computation and is never mutated or deleted.
type ProgressLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Goal      string    `json:"goal"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// ProgressRepository defines the interface for progress log storage
type ProgressRepository interface {
	Create(ctx context.Context, entry *ProgressLog) error
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]ProgressLog, error)
}
