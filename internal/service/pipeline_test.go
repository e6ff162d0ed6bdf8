package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func instantSleep(ctx context.Context, d time.Duration) error {
	return nil
}

func exchangePair(chatID, ownerID uuid.UUID) []domain.Message {
	now := time.Now()
	return []domain.Message{
		{ID: uuid.New(), ChatID: chatID, UserID: ownerID, Role: domain.RoleUser, Content: "Help me exercise more", CreatedAt: now},
		{ID: uuid.New(), ChatID: chatID, UserID: ownerID, Role: domain.RoleAssistant, Content: "Start with 10 minutes a day.", CreatedAt: now},
	}
}

func TestPipeline_SucceedsFirstAttempt(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	chatRepo := new(MockChatRepository)
	notices := new(MockNoticeSink)
	cache := new(MockChatCache)

	chatID := uuid.New()
	ownerID := uuid.New()
	pair := exchangePair(chatID, ownerID)

	messageRepo.On("CreateBatch", mock.Anything, pair).Return(nil).Once()
	chatRepo.On("UpsertPreview", mock.Anything, chatID, "Start with 10 minutes a day.", mock.AnythingOfType("time.Time")).Return(nil).Once()
	cache.On("Invalidate", mock.Anything, ownerID).Return(nil).Once()

	p := NewPipeline(messageRepo, chatRepo, notices, cache, 3, 2*time.Second, instantSleep)
	p.Persist(context.Background(), pair, chatID, ownerID, "Start with 10 minutes a day.")

	messageRepo.AssertExpectations(t)
	chatRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
	notices.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_FailsTwiceThenSucceeds(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	chatRepo := new(MockChatRepository)
	notices := new(MockNoticeSink)
	cache := new(MockChatCache)

	chatID := uuid.New()
	ownerID := uuid.New()
	pair := exchangePair(chatID, ownerID)

	messageRepo.On("CreateBatch", mock.Anything, pair).Return(errors.New("storage contention")).Twice()
	messageRepo.On("CreateBatch", mock.Anything, pair).Return(nil).Once()
	chatRepo.On("UpsertPreview", mock.Anything, chatID, "T", mock.AnythingOfType("time.Time")).Return(nil).Once()
	cache.On("Invalidate", mock.Anything, ownerID).Return(nil).Once()

	p := NewPipeline(messageRepo, chatRepo, notices, cache, 3, 2*time.Second, instantSleep)
	p.Persist(context.Background(), pair, chatID, ownerID, "T")

	// Exactly 3 attempts, terminal state is success.
	messageRepo.AssertNumberOfCalls(t, "CreateBatch", 3)
	chatRepo.AssertExpectations(t)
	notices.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_ExhaustsAttemptsAndWarns(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	chatRepo := new(MockChatRepository)
	notices := new(MockNoticeSink)
	cache := new(MockChatCache)

	chatID := uuid.New()
	ownerID := uuid.New()
	pair := exchangePair(chatID, ownerID)

	messageRepo.On("CreateBatch", mock.Anything, pair).Return(errors.New("storage down"))
	notices.On("Push", mock.Anything, ownerID, SaveFailureNotice).Return(nil).Once()

	p := NewPipeline(messageRepo, chatRepo, notices, cache, 3, 2*time.Second, instantSleep)
	p.Persist(context.Background(), pair, chatID, ownerID, "T")

	// Exactly 3 attempts, then a notice and nothing else: no preview
	// update, no cache invalidation, no further retries.
	messageRepo.AssertNumberOfCalls(t, "CreateBatch", 3)
	notices.AssertExpectations(t)
	chatRepo.AssertNotCalled(t, "UpsertPreview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestPipeline_PreviewFailureSkipsCacheInvalidation(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	chatRepo := new(MockChatRepository)
	notices := new(MockNoticeSink)
	cache := new(MockChatCache)

	chatID := uuid.New()
	ownerID := uuid.New()
	pair := exchangePair(chatID, ownerID)

	messageRepo.On("CreateBatch", mock.Anything, pair).Return(nil).Once()
	chatRepo.On("UpsertPreview", mock.Anything, chatID, "T", mock.AnythingOfType("time.Time")).Return(errors.New("conflict")).Once()

	p := NewPipeline(messageRepo, chatRepo, notices, cache, 3, 2*time.Second, instantSleep)
	p.Persist(context.Background(), pair, chatID, ownerID, "T")

	// Messages are durable; a preview failure is eventually consistent and
	// does not warrant a user-facing notice.
	assert.True(t, messageRepo.AssertExpectations(t))
	notices.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}
