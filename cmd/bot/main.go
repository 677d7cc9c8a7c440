package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/dapi/neurozeh-auto-service-bot/internal/bot"
	"github.com/dapi/neurozeh-auto-service-bot/internal/config"
	"github.com/dapi/neurozeh-auto-service-bot/internal/conversation"
	"github.com/dapi/neurozeh-auto-service-bot/internal/dialog"
	"github.com/dapi/neurozeh-auto-service-bot/internal/leads"
	"github.com/dapi/neurozeh-auto-service-bot/internal/llm"
	"github.com/dapi/neurozeh-auto-service-bot/internal/observability/metrics"
	"github.com/dapi/neurozeh-auto-service-bot/internal/pricing"
	"github.com/dapi/neurozeh-auto-service-bot/internal/ratelimit"
	"github.com/dapi/neurozeh-auto-service-bot/internal/telegram"
	"github.com/dapi/neurozeh-auto-service-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog := pricing.LoadCatalog(cfg.PriceListPath, logger.Component("pricing"))
	systemPrompt := llm.BuildSystemPrompt(cfg.SystemPromptPath, catalog, logger.Component("llm"))

	llmClient, err := llm.NewAnthropicClient(llm.Config{
		BaseURL:      cfg.AnthropicBaseURL,
		APIKey:       cfg.AnthropicAPIKey,
		Model:        cfg.AnthropicModel,
		SystemPrompt: systemPrompt,
		MaxTokens:    cfg.LLMMaxTokens,
		MaxRetries:   cfg.LLMMaxRetries,
		Logger:       logger.Component("llm"),
	})
	if err != nil {
		logger.Error("failed to create llm client", "error", err)
		os.Exit(1)
	}

	var limiter ratelimit.Limiter = ratelimit.NewSlidingWindow(cfg.RateLimitRequests, cfg.RateLimitPeriod)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			logger.Warn("redis unreachable, using in-process rate limiter", "addr", cfg.RedisAddr, "error", err)
		} else {
			limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitPeriod, logger.Component("ratelimit"))
			defer func() { _ = rdb.Close() }()
		}
	}

	var store conversation.Store = conversation.NewMemoryStore()
	var repo leads.Repository = leads.NewInMemoryRepository()
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		store = conversation.NewPostgresStore(db)

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = leads.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, conversations and leads are in-memory only")
	}

	tgClient, err := telegram.NewClient(telegram.Config{
		BaseURL: cfg.TelegramAPIBaseURL,
		Token:   cfg.TelegramBotToken,
		Logger:  logger.Component("telegram"),
	})
	if err != nil {
		logger.Error("failed to create telegram client", "error", err)
		os.Exit(1)
	}
	me, err := tgClient.GetMe(ctx)
	if err != nil {
		logger.Error("telegram token check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("authorized", "bot", me.Username, "mode", cfg.TelegramMode)

	handler := bot.NewHandler(bot.Options{
		Transport:        tgClient,
		Limiter:          limiter,
		Store:            store,
		LLM:              llmClient,
		Detector:         leads.NewDetector(dialog.NewAnalyzer(), pricing.NewCalculator(catalog)),
		Repo:             repo,
		Metrics:          metrics.NewBotMetrics(nil),
		Logger:           logger.Component("bot"),
		BotID:            me.ID,
		AdminChatID:      cfg.AdminChatID,
		WelcomeMessage:   cfg.WelcomeMessage,
		RateLimitMessage: cfg.RateLimitMessage,
		ApologyMessage:   cfg.ApologyMessage,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: telegram.NewRouter(handler, logger.Component("http")),
	}
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
		}
	}()

	pollerDone := make(chan struct{})
	switch cfg.TelegramMode {
	case config.ModeWebhook:
		close(pollerDone)
		if err := tgClient.SetWebhook(ctx, cfg.WebhookURL); err != nil {
			logger.Error("failed to set webhook", "error", err)
			os.Exit(1)
		}
		logger.Info("webhook registered", "url", cfg.WebhookURL)
	default:
		poller := telegram.NewPoller(tgClient, handler, logger.Component("poller"))
		go func() {
			defer close(pollerDone)
			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("poller stopped", "error", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	select {
	case <-pollerDone:
		logger.Info("stopped")
	case <-shutdownCtx.Done():
		logger.Error("poller shutdown timed out")
	}
}
