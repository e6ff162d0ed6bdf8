package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a platform user. The premium flag is consumed here,
// never computed; entitlement management lives outside this service.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Premium   bool      `json:"premium"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
