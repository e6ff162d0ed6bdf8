package postgres

import (
	"context"
	"fmt"

	"github.com/habitforge/habitforge/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MoodRepository implements domain.MoodRepository
type MoodRepository struct {
	pool *pgxpool.Pool
}

// NewMoodRepository creates a new mood repository
func NewMoodRepository(pool *pgxpool.Pool) *MoodRepository {
	return &MoodRepository{pool: pool}
}

func (r *MoodRepository) Create(ctx context.Context, entry *domain.MoodLog) error {
	query := `
		INSERT INTO mood_logs (id, user_id, mood, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Mood,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create mood log: %w", err)
	}
	return nil
}
