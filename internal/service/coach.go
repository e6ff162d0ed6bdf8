package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
	"github.com/habitforge/habitforge/internal/llm"
	"github.com/habitforge/habitforge/internal/mood"
	"github.com/rs/zerolog/log"
)

const (
	newChatPreview = "New conversation started..."
	titleMaxLen    = 30
)

var (
	// ErrNoSession is returned when no authenticated owner is present.
	ErrNoSession = errors.New("no authenticated session")
	// ErrForbidden is returned when an owner touches another owner's chat.
	ErrForbidden = errors.New("chat belongs to another owner")
)

// TurnResult is the outcome of one submitted turn. ChatID is populated as
// soon as the chat is resolved, even when the completion itself fails, so
// the caller's state can reflect the created chat.
type TurnResult struct {
	ChatID uuid.UUID `json:"chat_id"`
	Reply  string    `json:"reply,omitempty"`
	Mood   string    `json:"mood,omitempty"`
}

// CoachService owns the current-chat abstraction and orchestrates one
// exchange: session resolution, mood classification, completion, and the
// hand-off to the persistence pipeline.
type CoachService struct {
	chatRepo     domain.ChatRepository
	messageRepo  domain.MessageRepository
	progressRepo domain.ProgressRepository
	moodRepo     domain.MoodRepository
	classifier   *mood.Classifier
	llmRouter    *llm.Router
	pipeline     *Pipeline
	cache        ChatCache
	historyLimit int
}

// NewCoachService creates a new coach service
func NewCoachService(
	chatRepo domain.ChatRepository,
	messageRepo domain.MessageRepository,
	progressRepo domain.ProgressRepository,
	moodRepo domain.MoodRepository,
	classifier *mood.Classifier,
	llmRouter *llm.Router,
	pipeline *Pipeline,
	cache ChatCache,
	historyLimit int,
) *CoachService {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &CoachService{
		chatRepo:     chatRepo,
		messageRepo:  messageRepo,
		progressRepo: progressRepo,
		moodRepo:     moodRepo,
		classifier:   classifier,
		llmRouter:    llmRouter,
		pipeline:     pipeline,
		cache:        cache,
		historyLimit: historyLimit,
	}
}

// SubmitTurn processes one user turn. A nil chatID creates a new chat,
// whose identifier is authoritative for the rest of the exchange; a non-nil
// chatID must name one of the caller's own chats. Chat creation failure is
// fatal for the turn; persistence of the exchange is fire-and-forget and
// never blocks the reply.
func (s *CoachService) SubmitTurn(ctx context.Context, sess domain.Session, chatID *uuid.UUID, text string) (*TurnResult, error) {
	if sess.UserID == uuid.Nil {
		return nil, ErrNoSession
	}

	now := time.Now()

	var id uuid.UUID
	if chatID == nil {
		id = uuid.New()
		chat := &domain.Chat{
			ID:        id,
			UserID:    sess.UserID,
			Title:     deriveTitle(text),
			Preview:   newChatPreview,
			UpdatedAt: now,
			CreatedAt: now,
		}
		// Committed before the completion call so listings and the change
		// feed reflect the new chat even if later steps fail.
		if err := s.chatRepo.Create(ctx, chat); err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}
		s.invalidateCache(ctx, sess.UserID)
	} else {
		chat, err := s.chatRepo.Get(ctx, *chatID)
		if err != nil {
			return nil, fmt.Errorf("failed to get chat: %w", err)
		}
		if chat.UserID != sess.UserID {
			return nil, ErrForbidden
		}
		id = chat.ID
	}

	result := &TurnResult{ChatID: id}

	label, classified := s.classifier.Classify(ctx, text, sess.Premium)
	result.Mood = label

	history, err := s.messageRepo.ListByChat(ctx, id, s.historyLimit)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", id.String()).Msg("failed to fetch chat history")
		history = nil
	}

	turns := make([]llm.Turn, 0, len(history)+1)
	for _, m := range history {
		turns = append(turns, llm.Turn{Role: string(m.Role), Content: m.Content})
	}
	turns = append(turns, llm.Turn{Role: "user", Content: text})

	provider, err := s.llmRouter.GetProvider("")
	if err != nil {
		return result, fmt.Errorf("no completion provider available: %w", err)
	}

	// The mood label is substituted into the instruction before the call.
	reply, err := provider.Complete(ctx, llm.CoachInstruction(label), turns)
	if err != nil {
		return result, fmt.Errorf("completion failed: %w", err)
	}
	result.Reply = reply

	userMsg := domain.Message{
		ID:        uuid.New(),
		ChatID:    id,
		UserID:    sess.UserID,
		Role:      domain.RoleUser,
		Content:   text,
		CreatedAt: now,
	}
	assistantMsg := domain.Message{
		ID:        uuid.New(),
		ChatID:    id,
		UserID:    sess.UserID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}

	// Decoupled from the request path; failure surfaces as a notice, never
	// as an error on this exchange.
	go s.pipeline.Persist(context.WithoutCancel(ctx), []domain.Message{userMsg, assistantMsg}, id, sess.UserID, reply)

	if err := s.progressRepo.Create(ctx, &domain.ProgressLog{
		ID:        uuid.New(),
		UserID:    sess.UserID,
		Goal:      text,
		Outcome:   reply,
		CreatedAt: time.Now(),
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record progress log")
	}

	if classified {
		if err := s.moodRepo.Create(ctx, &domain.MoodLog{
			ID:        uuid.New(),
			UserID:    sess.UserID,
			Mood:      label,
			CreatedAt: time.Now(),
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record mood log")
		}
	}

	return result, nil
}

// ListChats returns the owner's chats, newest activity first, serving from
// the cache when possible.
func (s *CoachService) ListChats(ctx context.Context, sess domain.Session) ([]domain.Chat, error) {
	if sess.UserID == uuid.Nil {
		return nil, ErrNoSession
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, sess.UserID); err == nil && cached != nil {
			return cached, nil
		}
	}

	chats, err := s.chatRepo.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	if s.cache != nil && len(chats) > 0 {
		if err := s.cache.Set(ctx, sess.UserID, chats); err != nil {
			log.Debug().Err(err).Msg("failed to populate chat list cache")
		}
	}

	return chats, nil
}

// ChatHistory returns the messages of one of the owner's chats in
// chronological order.
func (s *CoachService) ChatHistory(ctx context.Context, sess domain.Session, chatID uuid.UUID, limit int) ([]domain.Message, error) {
	if sess.UserID == uuid.Nil {
		return nil, ErrNoSession
	}

	chat, err := s.chatRepo.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if chat.UserID != sess.UserID {
		return nil, ErrForbidden
	}

	if limit <= 0 {
		limit = 100
	}
	return s.messageRepo.ListByChat(ctx, chatID, limit)
}

func (s *CoachService) invalidateCache(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Debug().Err(err).Msg("failed to invalidate chat list cache")
	}
}

// deriveTitle takes the first 30 characters of the opening turn,
// rune-safe.
func deriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxLen {
		return text
	}
	return string(runes[:titleMaxLen])
}
