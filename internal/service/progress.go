package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
	"github.com/habitforge/habitforge/internal/streak"
)

// ProgressService exposes progress history and streak computation.
type ProgressService struct {
	progressRepo domain.ProgressRepository
	loc          *time.Location
	now          func() time.Time
}

// NewProgressService creates a progress service evaluating streaks in loc.
func NewProgressService(progressRepo domain.ProgressRepository, loc *time.Location) *ProgressService {
	if loc == nil {
		loc = time.Local
	}
	return &ProgressService{
		progressRepo: progressRepo,
		loc:          loc,
		now:          time.Now,
	}
}

// List returns the owner's progress logs, newest first.
func (s *ProgressService) List(ctx context.Context, sess domain.Session) ([]domain.ProgressLog, error) {
	if sess.UserID == uuid.Nil {
		return nil, ErrNoSession
	}
	logs, err := s.progressRepo.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return logs, nil
}

// Streak computes the owner's current consecutive-day engagement count on
// demand; it is not part of any write path.
func (s *ProgressService) Streak(ctx context.Context, sess domain.Session) (int, error) {
	if sess.UserID == uuid.Nil {
		return 0, ErrNoSession
	}
	logs, err := s.progressRepo.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to list progress: %w", err)
	}
	return streak.Compute(logs, s.now(), s.loc), nil
}
