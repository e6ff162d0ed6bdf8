package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
	"github.com/habitforge/habitforge/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockChatRepository mocks domain.ChatRepository
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *MockChatRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chat), args.Error(1)
}

func (m *MockChatRepository) UpsertPreview(ctx context.Context, id uuid.UUID, preview string, updatedAt time.Time) error {
	args := m.Called(ctx, id, preview, updatedAt)
	return args.Error(0)
}

// MockMessageRepository mocks domain.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateBatch(ctx context.Context, messages []domain.Message) error {
	args := m.Called(ctx, messages)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByChat(ctx context.Context, chatID uuid.UUID, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, chatID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

// MockProgressRepository mocks domain.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Create(ctx context.Context, entry *domain.ProgressLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockProgressRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.ProgressLog, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProgressLog), args.Error(1)
}

// MockMoodRepository mocks domain.MoodRepository
type MockMoodRepository struct {
	mock.Mock
}

func (m *MockMoodRepository) Create(ctx context.Context, entry *domain.MoodLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockUserRepository mocks domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockChatCache mocks the ChatCache interface
type MockChatCache struct {
	mock.Mock
}

func (m *MockChatCache) Get(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chat), args.Error(1)
}

func (m *MockChatCache) Set(ctx context.Context, userID uuid.UUID, chats []domain.Chat) error {
	args := m.Called(ctx, userID, chats)
	return args.Error(0)
}

func (m *MockChatCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockNoticeSink mocks the NoticeSink interface
type MockNoticeSink struct {
	mock.Mock
}

func (m *MockNoticeSink) Push(ctx context.Context, userID uuid.UUID, notice string) error {
	args := m.Called(ctx, userID, notice)
	return args.Error(0)
}

// MockReminderRegistry mocks the ReminderRegistry interface
type MockReminderRegistry struct {
	mock.Mock
}

func (m *MockReminderRegistry) Enable(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockReminderRegistry) Disable(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockReminderRegistry) ListEnabled(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockProvider mocks llm.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) DefaultModel() string {
	return "mock-model"
}

func (m *MockProvider) IsConfigured() bool {
	return true
}

func (m *MockProvider) Complete(ctx context.Context, systemInstruction string, turns []llm.Turn) (string, error) {
	args := m.Called(ctx, systemInstruction, turns)
	return args.String(0), args.Error(1)
}
