package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
	"github.com/habitforge/habitforge/internal/llm"
	"github.com/rs/zerolog/log"
)

// Reminder text constants. Standard users always get the template; premium
// fallbacks cover empty history, an empty completion, and provider errors.
const (
	ReminderTitle         = "Your Daily HabitForge Reminder"
	reminderStandard      = "Don't forget to work on your habits today! A little progress each day leads to big results."
	reminderEmptyHistory  = "Time to make some progress! What's your first step today?"
	reminderEmptyReply    = "Let's get to it! Every step counts."
	reminderProviderError = "Another day, another opportunity to build a great habit!"
)

// ReminderRegistry tracks which owners opted into reminders.
type ReminderRegistry interface {
	Enable(ctx context.Context, userID uuid.UUID) error
	Disable(ctx context.Context, userID uuid.UUID) error
	ListEnabled(ctx context.Context) ([]uuid.UUID, error)
}

// Delivery hands generated reminder text to the external notification
// surface.
type Delivery func(ctx context.Context, userID uuid.UUID, title, body string)

// ReminderService produces reminder text: personalized via the completion
// provider for premium users, templated otherwise.
type ReminderService struct {
	progressRepo  domain.ProgressRepository
	llmRouter     *llm.Router
	recentEntries int
	maxChars      int
}

// NewReminderService creates a reminder service
func NewReminderService(progressRepo domain.ProgressRepository, llmRouter *llm.Router, recentEntries, maxChars int) *ReminderService {
	if recentEntries <= 0 {
		recentEntries = 5
	}
	if maxChars <= 0 {
		maxChars = 150
	}
	return &ReminderService{
		progressRepo:  progressRepo,
		llmRouter:     llmRouter,
		recentEntries: recentEntries,
		maxChars:      maxChars,
	}
}

// GenerateReminder never fails; every degraded path yields a static string.
func (s *ReminderService) GenerateReminder(ctx context.Context, sess domain.Session) string {
	if !sess.Premium {
		return reminderStandard
	}
	return s.personalizedReminder(ctx, sess.UserID)
}

func (s *ReminderService) personalizedReminder(ctx context.Context, userID uuid.UUID) string {
	logs, err := s.progressRepo.ListByOwner(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load progress for reminder")
		return reminderProviderError
	}
	if len(logs) == 0 {
		return reminderEmptyHistory
	}

	// logs are newest first; take the most recent few.
	if len(logs) > s.recentEntries {
		logs = logs[:s.recentEntries]
	}
	entries := make([]llm.ReminderEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, llm.ReminderEntry{Goal: l.Goal, Outcome: l.Outcome})
	}

	provider, err := s.llmRouter.GetProvider("")
	if err != nil {
		return reminderProviderError
	}

	reply, err := provider.Complete(ctx, llm.ReminderInstruction, []llm.Turn{
		{Role: "user", Content: llm.BuildReminderContext(entries)},
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to generate personalized reminder")
		return reminderProviderError
	}
	if reply == "" {
		return reminderEmptyReply
	}

	return truncate(reply, s.maxChars)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// Scheduler periodically generates reminder text for every opted-in owner
// and hands it to the delivery callback.
type Scheduler struct {
	reminders *ReminderService
	registry  ReminderRegistry
	userRepo  domain.UserRepository
	interval  time.Duration
	deliver   Delivery
}

// NewScheduler creates a reminder scheduler. deliver may be nil, in which
// case reminders are logged (delivery is an external concern).
func NewScheduler(reminders *ReminderService, registry ReminderRegistry, userRepo domain.UserRepository, interval time.Duration, deliver Delivery) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if deliver == nil {
		deliver = func(ctx context.Context, userID uuid.UUID, title, body string) {
			log.Info().
				Str("user_id", userID.String()).
				Str("title", title).
				Str("body", body).
				Msg("reminder ready for delivery")
		}
	}
	return &Scheduler{
		reminders: reminders,
		registry:  registry,
		userRepo:  userRepo,
		interval:  interval,
		deliver:   deliver,
	}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	owners, err := s.registry.ListEnabled(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list reminder subscribers")
		return
	}

	for _, owner := range owners {
		sess := domain.Session{UserID: owner}
		if user, err := s.userRepo.GetByID(ctx, owner); err == nil && user != nil {
			sess.Email = user.Email
			sess.Premium = user.Premium
		}

		body := s.reminders.GenerateReminder(ctx, sess)
		s.deliver(ctx, owner, ReminderTitle, body)
	}
}
