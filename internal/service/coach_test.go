package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
	"github.com/habitforge/habitforge/internal/llm"
	"github.com/habitforge/habitforge/internal/mood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type coachFixture struct {
	chatRepo     *MockChatRepository
	messageRepo  *MockMessageRepository
	progressRepo *MockProgressRepository
	moodRepo     *MockMoodRepository
	provider     *MockProvider
	notices      *MockNoticeSink
	cache        *MockChatCache
	svc          *CoachService

	persisted chan []domain.Message
}

func newCoachFixture(t *testing.T) *coachFixture {
	t.Helper()

	f := &coachFixture{
		chatRepo:     new(MockChatRepository),
		messageRepo:  new(MockMessageRepository),
		progressRepo: new(MockProgressRepository),
		moodRepo:     new(MockMoodRepository),
		provider:     new(MockProvider),
		notices:      new(MockNoticeSink),
		cache:        new(MockChatCache),
		persisted:    make(chan []domain.Message, 1),
	}

	router := llm.NewRouter("mock")
	router.RegisterProvider(f.provider)

	pipeline := NewPipeline(f.messageRepo, f.chatRepo, f.notices, f.cache, 3, 2*time.Second, instantSleep)
	f.svc = NewCoachService(
		f.chatRepo,
		f.messageRepo,
		f.progressRepo,
		f.moodRepo,
		mood.NewClassifier(nil),
		router,
		pipeline,
		f.cache,
		10,
	)

	return f
}

// expectPersistence wires the async pipeline mocks and signals f.persisted
// when the batch lands.
func (f *coachFixture) expectPersistence(ownerID uuid.UUID, preview string) {
	f.messageRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.Message")).
		Run(func(args mock.Arguments) {
			f.persisted <- args.Get(1).([]domain.Message)
		}).
		Return(nil).Once()
	f.chatRepo.On("UpsertPreview", mock.Anything, mock.AnythingOfType("uuid.UUID"), preview, mock.AnythingOfType("time.Time")).Return(nil)
	f.cache.On("Invalidate", mock.Anything, ownerID).Return(nil)
}

func (f *coachFixture) waitForPersistence(t *testing.T) []domain.Message {
	t.Helper()
	select {
	case pair := <-f.persisted:
		return pair
	case <-time.After(2 * time.Second):
		t.Fatal("persistence pipeline was never invoked")
		return nil
	}
}

func TestSubmitTurn_CreatesChatOnFirstTurn(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New(), Email: "u@example.com"}
	ctx := context.Background()

	var mu sync.Mutex
	var order []string

	f.chatRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Chat")).
		Run(func(args mock.Arguments) {
			mu.Lock()
			order = append(order, "chat-create")
			mu.Unlock()
		}).
		Return(nil).Once()
	f.cache.On("Invalidate", mock.Anything, sess.UserID).Return(nil)
	f.messageRepo.On("ListByChat", mock.Anything, mock.AnythingOfType("uuid.UUID"), 10).Return([]domain.Message{}, nil).Once()
	f.provider.On("Complete", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]llm.Turn")).Return("Start small: ten minutes a day.", nil).Once()
	f.messageRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.Message")).
		Run(func(args mock.Arguments) {
			mu.Lock()
			order = append(order, "persist")
			mu.Unlock()
			f.persisted <- args.Get(1).([]domain.Message)
		}).
		Return(nil).Once()
	f.chatRepo.On("UpsertPreview", mock.Anything, mock.AnythingOfType("uuid.UUID"), "Start small: ten minutes a day.", mock.AnythingOfType("time.Time")).Return(nil)
	f.progressRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ProgressLog")).Return(nil).Once()
	f.moodRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MoodLog")).Return(nil).Once()

	result, err := f.svc.SubmitTurn(ctx, sess, nil, "Help me build a consistent exercise habit, starting small")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.ChatID)
	assert.Equal(t, "Start small: ten minutes a day.", result.Reply)

	f.waitForPersistence(t)

	// The chat exists before the pipeline ever runs.
	mu.Lock()
	require.Len(t, order, 2)
	assert.Equal(t, "chat-create", order[0])
	assert.Equal(t, "persist", order[1])
	mu.Unlock()

	// Title is the first 30 characters of the opening turn.
	created := f.chatRepo.Calls[0].Arguments.Get(1).(*domain.Chat)
	assert.Equal(t, "Help me build a consistent exe", created.Title)
	assert.Equal(t, newChatPreview, created.Preview)
	assert.Equal(t, sess.UserID, created.UserID)
}

func TestSubmitTurn_ExistingChatNeverCreatesSecond(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}
	chatID := uuid.New()

	f.chatRepo.On("Get", mock.Anything, chatID).Return(&domain.Chat{ID: chatID, UserID: sess.UserID}, nil).Once()
	f.messageRepo.On("ListByChat", mock.Anything, chatID, 10).Return([]domain.Message{
		{Role: domain.RoleUser, Content: "earlier turn"},
		{Role: domain.RoleAssistant, Content: "earlier reply"},
	}, nil).Once()
	f.provider.On("Complete", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]llm.Turn")).Return("Keep going!", nil).Once()
	f.expectPersistence(sess.UserID, "Keep going!")
	f.progressRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ProgressLog")).Return(nil).Once()
	f.moodRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MoodLog")).Return(nil).Once()

	result, err := f.svc.SubmitTurn(context.Background(), sess, &chatID, "did my workout")
	require.NoError(t, err)
	assert.Equal(t, chatID, result.ChatID)

	f.waitForPersistence(t)
	f.chatRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	// Prior turns are handed to the provider as history.
	turns := f.provider.Calls[0].Arguments.Get(2).([]llm.Turn)
	require.Len(t, turns, 3)
	assert.Equal(t, "earlier turn", turns[0].Content)
	assert.Equal(t, "did my workout", turns[2].Content)
}

func TestSubmitTurn_ChatCreationFailureIsFatal(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}

	f.chatRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Chat")).Return(errors.New("insert denied")).Once()

	result, err := f.svc.SubmitTurn(context.Background(), sess, nil, "Help me exercise more")
	require.Error(t, err)
	assert.Nil(t, result)

	// No completion, no persistence, no partial state.
	f.provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	f.messageRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.progressRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitTurn_CompletionFailureStillSurfacesChatID(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}

	f.chatRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Chat")).Return(nil).Once()
	f.cache.On("Invalidate", mock.Anything, sess.UserID).Return(nil)
	f.messageRepo.On("ListByChat", mock.Anything, mock.AnythingOfType("uuid.UUID"), 10).Return([]domain.Message{}, nil).Once()
	f.provider.On("Complete", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]llm.Turn")).Return("", errors.New("model timeout")).Once()

	result, err := f.svc.SubmitTurn(context.Background(), sess, nil, "Help me exercise more")
	require.Error(t, err)
	require.NotNil(t, result)
	assert.NotEqual(t, uuid.Nil, result.ChatID)

	// Nothing is persisted for the failed exchange.
	f.messageRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.progressRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitTurn_MoodConditionsTheInstruction(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}
	chatID := uuid.New()

	f.chatRepo.On("Get", mock.Anything, chatID).Return(&domain.Chat{ID: chatID, UserID: sess.UserID}, nil).Once()
	f.messageRepo.On("ListByChat", mock.Anything, chatID, 10).Return([]domain.Message{}, nil).Once()
	f.provider.On("Complete", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]llm.Turn")).Return("Take a breath. One small step.", nil).Once()
	f.expectPersistence(sess.UserID, "Take a breath. One small step.")
	f.progressRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ProgressLog")).Return(nil).Once()
	f.moodRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MoodLog")).Return(nil).Once()

	result, err := f.svc.SubmitTurn(context.Background(), sess, &chatID, "I'm so stressed about sticking to this")
	require.NoError(t, err)
	assert.Equal(t, "stressed", result.Mood)
	f.waitForPersistence(t)

	instruction := f.provider.Calls[0].Arguments.String(1)
	assert.Contains(t, instruction, "sounds stressed")

	moodLog := f.moodRepo.Calls[0].Arguments.Get(1).(*domain.MoodLog)
	assert.Equal(t, "stressed", moodLog.Mood)
	assert.Equal(t, sess.UserID, moodLog.UserID)
}

func TestSubmitTurn_BestEffortLogsNeverFailTheTurn(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}
	chatID := uuid.New()

	f.chatRepo.On("Get", mock.Anything, chatID).Return(&domain.Chat{ID: chatID, UserID: sess.UserID}, nil).Once()
	f.messageRepo.On("ListByChat", mock.Anything, chatID, 10).Return([]domain.Message{}, nil).Once()
	f.provider.On("Complete", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]llm.Turn")).Return("Nice work.", nil).Once()
	f.expectPersistence(sess.UserID, "Nice work.")
	f.progressRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ProgressLog")).Return(errors.New("progress table busy")).Once()
	f.moodRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MoodLog")).Return(errors.New("mood table busy")).Once()

	result, err := f.svc.SubmitTurn(context.Background(), sess, &chatID, "checked in today")
	require.NoError(t, err)
	assert.Equal(t, "Nice work.", result.Reply)
	f.waitForPersistence(t)
}

func TestSubmitTurn_RequiresSession(t *testing.T) {
	f := newCoachFixture(t)

	_, err := f.svc.SubmitTurn(context.Background(), domain.Session{}, nil, "hello")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSubmitTurn_EndToEndExchange(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}
	const goal = "Help me exercise more"
	const reply = "Let's build a sustainable routine together."

	f.chatRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Chat")).Return(nil).Once()
	f.cache.On("Invalidate", mock.Anything, sess.UserID).Return(nil)
	f.messageRepo.On("ListByChat", mock.Anything, mock.AnythingOfType("uuid.UUID"), 10).Return([]domain.Message{}, nil).Once()
	f.provider.On("Complete", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]llm.Turn")).Return(reply, nil).Once()
	f.messageRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.Message")).
		Run(func(args mock.Arguments) { f.persisted <- args.Get(1).([]domain.Message) }).
		Return(nil).Once()
	f.chatRepo.On("UpsertPreview", mock.Anything, mock.AnythingOfType("uuid.UUID"), reply, mock.AnythingOfType("time.Time")).Return(nil)
	f.progressRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ProgressLog")).Return(nil).Once()
	f.moodRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MoodLog")).Return(nil).Once()

	result, err := f.svc.SubmitTurn(context.Background(), sess, nil, goal)
	require.NoError(t, err)

	// Title is the full text when under 30 characters, mood is neutral
	// (no keyword matches), and the reply becomes the preview.
	created := f.chatRepo.Calls[0].Arguments.Get(1).(*domain.Chat)
	assert.Equal(t, goal, created.Title)
	assert.Equal(t, "neutral", result.Mood)
	assert.Equal(t, reply, result.Reply)

	pair := f.waitForPersistence(t)
	require.Len(t, pair, 2)
	assert.Equal(t, domain.RoleUser, pair[0].Role)
	assert.Equal(t, goal, pair[0].Content)
	assert.Equal(t, domain.RoleAssistant, pair[1].Role)
	assert.Equal(t, reply, pair[1].Content)
	assert.Equal(t, result.ChatID, pair[0].ChatID)
	assert.Equal(t, result.ChatID, pair[1].ChatID)
	assert.False(t, pair[1].CreatedAt.Before(pair[0].CreatedAt))

	progress := f.progressRepo.Calls[0].Arguments.Get(1).(*domain.ProgressLog)
	assert.Equal(t, goal, progress.Goal)
	assert.Equal(t, reply, progress.Outcome)
}

func TestListChats_CacheHitSkipsStore(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}
	cached := []domain.Chat{{ID: uuid.New(), UserID: sess.UserID, Title: "Daily Exercise"}}

	f.cache.On("Get", mock.Anything, sess.UserID).Return(cached, nil).Once()

	chats, err := f.svc.ListChats(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, cached, chats)
	f.chatRepo.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything)
}

func TestListChats_CacheMissFallsThrough(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}
	stored := []domain.Chat{{ID: uuid.New(), UserID: sess.UserID, Title: "Reading Before Bed"}}

	f.cache.On("Get", mock.Anything, sess.UserID).Return(nil, nil).Once()
	f.chatRepo.On("ListByOwner", mock.Anything, sess.UserID).Return(stored, nil).Once()
	f.cache.On("Set", mock.Anything, sess.UserID, stored).Return(nil).Once()

	chats, err := f.svc.ListChats(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, stored, chats)
	f.cache.AssertExpectations(t)
}

func TestSubmitTurn_RejectsForeignChat(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}
	chatID := uuid.New()

	f.chatRepo.On("Get", mock.Anything, chatID).Return(&domain.Chat{ID: chatID, UserID: uuid.New()}, nil).Once()

	result, err := f.svc.SubmitTurn(context.Background(), sess, &chatID, "what did we talk about before?")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, result)

	// The foreign chat's history never reaches the prompt and nothing is
	// written into it.
	f.messageRepo.AssertNotCalled(t, "ListByChat", mock.Anything, mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	f.messageRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.chatRepo.AssertNotCalled(t, "UpsertPreview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChatHistory_RejectsForeignChat(t *testing.T) {
	f := newCoachFixture(t)
	sess := domain.Session{UserID: uuid.New()}
	chatID := uuid.New()

	f.chatRepo.On("Get", mock.Anything, chatID).Return(&domain.Chat{ID: chatID, UserID: uuid.New()}, nil).Once()

	_, err := f.svc.ChatHistory(context.Background(), sess, chatID, 50)
	assert.ErrorIs(t, err, ErrForbidden)
	f.messageRepo.AssertNotCalled(t, "ListByChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "short goal", deriveTitle("short goal"))
	assert.Equal(t, "123456789012345678901234567890", deriveTitle("1234567890123456789012345678901 extra"))
}
