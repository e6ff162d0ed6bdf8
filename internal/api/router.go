package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/habitforge/habitforge/internal/api/handler"
	custommw "github.com/habitforge/habitforge/internal/api/middleware"
	"github.com/habitforge/habitforge/internal/config"
	"github.com/habitforge/habitforge/internal/llm"
	"github.com/habitforge/habitforge/internal/llm/gemini"
	"github.com/habitforge/habitforge/internal/llm/ollama"
	"github.com/habitforge/habitforge/internal/llm/openai"
	"github.com/habitforge/habitforge/internal/mood"
	"github.com/habitforge/habitforge/internal/repository/postgres"
	"github.com/habitforge/habitforge/internal/repository/redis"
	"github.com/habitforge/habitforge/internal/security"
	"github.com/habitforge/habitforge/internal/service"
	"github.com/rs/zerolog/log"
)

// Deps bundles the long-lived components the router shares with the rest of
// the process (the reminder scheduler and the change-feed listener).
type Deps struct {
	Router    http.Handler
	Notifier  *postgres.Notifier
	Scheduler *service.Scheduler
}

// NewRouter creates and configures the HTTP router along with the
// background components built on the same repositories.
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) *Deps {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommw.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	// Repositories
	chatRepo := postgres.NewChatRepository(db.Pool)
	messageRepo := postgres.NewMessageRepository(db.Pool)
	progressRepo := postgres.NewProgressRepository(db.Pool)
	moodRepo := postgres.NewMoodRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)
	notifier := postgres.NewNotifier(db.Pool)

	chatCache := redis.NewChatListCache(redisClient)
	noticeStore := redis.NewNoticeStore(redisClient)
	reminderRegistry := redis.NewReminderRegistry(redisClient)
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Server.RateLimit.RequestsPerMinute,
		cfg.Server.RateLimit.Burst,
	)

	// LLM providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.Ollama.Host != "" {
		llmRouter.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	} else {
		log.Warn().Msg("Gemini API Key is empty, skipping registration")
	}

	// Premium mood classification resolves the default provider per call.
	classifier := mood.NewClassifier(llmRouter)

	loc := resolveTimezone(cfg.Coach.Timezone)

	// Services
	pipeline := service.NewPipeline(
		messageRepo,
		chatRepo,
		noticeStore,
		chatCache,
		cfg.Coach.RetryAttempts,
		cfg.Coach.RetryDelay,
		nil,
	)
	coachService := service.NewCoachService(
		chatRepo,
		messageRepo,
		progressRepo,
		moodRepo,
		classifier,
		llmRouter,
		pipeline,
		chatCache,
		cfg.Coach.HistoryLimit,
	)
	progressService := service.NewProgressService(progressRepo, loc)
	reminderService := service.NewReminderService(
		progressRepo,
		llmRouter,
		cfg.Reminder.RecentEntries,
		cfg.Reminder.MaxChars,
	)
	scheduler := service.NewScheduler(reminderService, reminderRegistry, userRepo, cfg.Reminder.Interval, nil)

	// Handlers
	chatHandler := handler.NewChatHandler(coachService)
	progressHandler := handler.NewProgressHandler(progressService)
	reminderHandler := handler.NewReminderHandler(reminderService, reminderRegistry)
	noticeHandler := handler.NewNoticeHandler(noticeStore)
	eventsHandler := handler.NewEventsHandler(notifier)

	authMiddleware := custommw.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := custommw.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

				r.Route("/chats", func(r chi.Router) {
					r.Get("/", chatHandler.List)
					r.Post("/turns", chatHandler.SubmitTurn)
					r.Get("/{chatID}/messages", chatHandler.Messages)
				})

				r.Route("/progress", func(r chi.Router) {
					r.Get("/", progressHandler.List)
					r.Get("/streak", progressHandler.Streak)
				})

				r.Route("/reminders", func(r chi.Router) {
					r.Get("/preview", reminderHandler.Preview)
					r.Post("/enable", reminderHandler.Enable)
					r.Post("/disable", reminderHandler.Disable)
				})

				r.Get("/notices", noticeHandler.Drain)
			})

			// Long-lived; no request timeout.
			r.Get("/events", eventsHandler.Stream)
		})
	})

	return &Deps{
		Router:    r,
		Notifier:  notifier,
		Scheduler: scheduler,
	}
}

func resolveTimezone(name string) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("timezone", name).Msg("unknown timezone, falling back to local")
		return time.Local
	}
	return loc
}
