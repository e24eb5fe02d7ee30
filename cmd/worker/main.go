package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"firmos_backend/internal/calls"
	"firmos_backend/internal/events"
	"firmos_backend/internal/gotoconnect"
	"firmos_backend/internal/scheduler"
	"firmos_backend/internal/storage"
	"firmos_backend/platform/config"
	"firmos_backend/platform/db"
	"firmos_backend/platform/logger"
)

// The worker consumes recording fetch and archive jobs enqueued by the
// webhook pipeline. It shares the API's database but runs separately so
// slow provider downloads never compete with request handling.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	callsSvc := calls.NewService(calls.NewRepository(pool), eventBus, log)
	provider := gotoconnect.NewClient(cfg, log)
	if provider == nil {
		log.Warn("GOTO_API_BASE_URL not configured; recording jobs will fail until it is set")
	}

	archiver, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer archiver.Close()

	var storageSvc storage.StorageService
	bucket := cfg.GetMinioBucketCallRecordings()
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := minioSvc.EnsureBucketExists(ctx, bucket); err != nil {
			log.Error("failed to ensure recordings bucket exists", "error", err, "bucket", bucket)
			panic("failed to ensure recordings bucket exists: " + err.Error())
		}
		storageSvc = minioSvc
		log.Info("storage service initialized", "bucket", bucket)
	} else {
		log.Warn("MinIO not configured; recordings will not be archived")
	}

	worker, err := scheduler.NewWorker(cfg, callsSvc, provider, archiver, storageSvc, bucket, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	log.Info("worker listening for jobs", "queue", cfg.GetAsynqQueueName())
	worker.Run(ctx)
	log.Info("worker stopped")
}
