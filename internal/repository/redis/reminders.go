package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const reminderSetKey = "reminders:enabled"

// ReminderRegistry tracks which owners have opted into daily reminders.
// The permission UX lives in the client; only the opt-in flag is stored.
type ReminderRegistry struct {
	client *Client
}

// NewReminderRegistry creates a new reminder registry
func NewReminderRegistry(client *Client) *ReminderRegistry {
	return &ReminderRegistry{client: client}
}

// Enable opts an owner into daily reminders
func (r *ReminderRegistry) Enable(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.rdb.SAdd(ctx, reminderSetKey, userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to enable reminders: %w", err)
	}
	return nil
}

// Disable opts an owner out of daily reminders
func (r *ReminderRegistry) Disable(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.rdb.SRem(ctx, reminderSetKey, userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to disable reminders: %w", err)
	}
	return nil
}

// ListEnabled returns every owner with reminders enabled
func (r *ReminderRegistry) ListEnabled(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.client.rdb.SMembers(ctx, reminderSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled reminders: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
