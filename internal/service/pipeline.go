package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
	"github.com/habitforge/habitforge/internal/retry"
	"github.com/rs/zerolog/log"
)

// SaveFailureNotice is surfaced to the owner when the pipeline gives up.
const SaveFailureNotice = "We couldn't save part of your conversation. Chat history may not be saved."

// NoticeSink receives durable, non-blocking warnings for an owner.
type NoticeSink interface {
	Push(ctx context.Context, userID uuid.UUID, notice string) error
}

// ChatCache is the owner chat-list cache the pipeline invalidates after a
// preview update.
type ChatCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error)
	Set(ctx context.Context, userID uuid.UUID, chats []domain.Chat) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Pipeline durably records exchange turn pairs with bounded retry,
// decoupled from the interactive request path. A persistence failure never
// blocks or reverts the already-displayed conversation.
type Pipeline struct {
	messageRepo domain.MessageRepository
	chatRepo    domain.ChatRepository
	notices     NoticeSink
	cache       ChatCache
	maxAttempts int
	delay       time.Duration
	sleep       retry.Sleep
}

// NewPipeline creates a persistence pipeline. sleep may be nil to use real
// timers.
func NewPipeline(
	messageRepo domain.MessageRepository,
	chatRepo domain.ChatRepository,
	notices NoticeSink,
	cache ChatCache,
	maxAttempts int,
	delay time.Duration,
	sleep retry.Sleep,
) *Pipeline {
	return &Pipeline{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		notices:     notices,
		cache:       cache,
		maxAttempts: maxAttempts,
		delay:       delay,
		sleep:       sleep,
	}
}

// Persist writes one exchange's (user, assistant) pair as a single batch,
// retrying a fixed number of times with a fixed delay. On success the
// owning chat's preview and last-activity timestamp are committed with
// previewText; on exhaustion a warning notice is pushed and the exchange is
// abandoned, with no queuing for later.
func (p *Pipeline) Persist(ctx context.Context, turns []domain.Message, chatID, ownerID uuid.UUID, previewText string) {
	err := retry.Do(ctx, p.maxAttempts, p.delay, p.sleep, func(ctx context.Context) error {
		return p.messageRepo.CreateBatch(ctx, turns)
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("chat_id", chatID.String()).
			Int("attempts", p.maxAttempts).
			Msg("giving up on message persistence")

		if p.notices != nil {
			if nerr := p.notices.Push(ctx, ownerID, SaveFailureNotice); nerr != nil {
				log.Warn().Err(nerr).Msg("failed to store save-failure notice")
			}
		}
		return
	}

	// Messages are durable; now commit the chat preview. Safe to repeat,
	// last write wins on the preview fields.
	if err := p.chatRepo.UpsertPreview(ctx, chatID, previewText, time.Now()); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("failed to update chat preview")
		return
	}

	if p.cache != nil {
		if err := p.cache.Invalidate(ctx, ownerID); err != nil {
			log.Debug().Err(err).Msg("failed to invalidate chat list cache")
		}
	}
}
