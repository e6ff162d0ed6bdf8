package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository implements domain.ProgressRepository
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

func (r *ProgressRepository) Create(ctx context.Context, entry *domain.ProgressLog) error {
	query := `
		INSERT INTO progress_logs (id, user_id, goal, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Goal,
		entry.Outcome,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create progress log: %w", err)
	}
	return nil
}

func (r *ProgressRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.ProgressLog, error) {
	query := `
		SELECT id, user_id, goal, outcome, created_at
		FROM progress_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ProgressLog
	for rows.Next() {
		var l domain.ProgressLog
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.Goal,
			&l.Outcome,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan progress log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, nil
}
