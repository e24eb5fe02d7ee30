package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firmos_backend/internal/activity"
	"firmos_backend/internal/aiparser"
	"firmos_backend/internal/calls"
	"firmos_backend/internal/clients"
	"firmos_backend/internal/email"
	"firmos_backend/internal/events"
	"firmos_backend/internal/gotoconnect"
	apphttp "firmos_backend/internal/http"
	"firmos_backend/internal/http/router"
	"firmos_backend/internal/notification"
	"firmos_backend/internal/scheduler"
	"firmos_backend/internal/tasks"
	"firmos_backend/internal/webhook"
	"firmos_backend/migrations"
	"firmos_backend/platform/config"
	"firmos_backend/platform/db"
	"firmos_backend/platform/logger"
	"firmos_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	deduper, closeDeduper := initDeduper(cfg, log)
	if closeDeduper != nil {
		defer closeDeduper()
	}

	recordingScheduler, closeScheduler := initRecordingScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender := email.NewSender(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	clientsModule := clients.NewModule(pool, eventBus, val, log)
	callsModule := calls.NewModule(pool, eventBus, log)
	tasksModule := tasks.NewModule(pool, eventBus, val, log)
	activityModule := activity.NewModule(pool, log)

	// Provider API client for recording lookups; nil when not configured.
	var provider webhook.ProviderAPI
	if gotoClient := gotoconnect.NewClient(cfg, log); gotoClient != nil {
		provider = gotoClient
		log.Info("goto api client initialized", "base_url", cfg.GetGotoAPIBaseURL())
	} else {
		log.Warn("GOTO_API_BASE_URL not configured; recording fetches disabled")
	}

	// AI parser for payloads the deterministic router cannot classify.
	var ai webhook.AIParser
	parser, err := aiparser.NewParser(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize ai parser", "error", err)
		panic("failed to initialize ai parser: " + err.Error())
	}
	if parser != nil {
		ai = parser
		log.Info("ai parser initialized", "model", cfg.GetGeminiModel())
	} else {
		log.Warn("GEMINI_API_KEY not configured; ai parsing disabled")
	}

	webhookModule := webhook.NewModule(
		pool,
		deduper,
		callsModule.Service(),
		clientsModule.Service(),
		tasksModule.Service(),
		activityModule.Service(),
		provider,
		ai,
		recordingScheduler,
		eventBus,
		cfg,
		log,
	)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			clientsModule,
			callsModule,
			tasksModule,
			activityModule,
			webhookModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initDeduper prefers the shared Redis store so replicas agree on
// processed events, falling back to a per-process memory guard.
func initDeduper(cfg *config.Config, log *logger.Logger) (webhook.Deduper, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; webhook dedupe is per-process only")
		return webhook.NewMemoryDeduper(), nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL, falling back to in-memory dedupe", "error", err)
		return webhook.NewMemoryDeduper(), nil
	}

	client := redis.NewClient(opt)
	return webhook.NewRedisDeduper(client, cfg.GetDedupeTTL()), func() {
		_ = client.Close()
	}
}

func initRecordingScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.RecordingScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; recording fetches run inline")
		return nil, nil
	}

	schedulerClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize recording scheduler client", "error", err)
		return nil, nil
	}

	return schedulerClient, func() {
		_ = schedulerClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
