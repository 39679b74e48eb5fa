package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"recap/config"
	"recap/logging"
	"recap/projector"
	"recap/storage"
	"recap/telemetry"
)

const serviceName = "event-processor"

func main() {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		log.Fatalf("env: %v", err)
	}
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	idle, err := config.Duration("PROCESSOR_IDLE", time.Second)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	visibility, err := config.Duration("PROCESSOR_VISIBILITY", 30*time.Second)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Options{Service: serviceName, Debug: cfg.Debug, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	shutdownTracing := telemetry.Setup(logger, serviceName)

	base, err := storage.New(cfg.StorageConnectionString, cfg.MeetingsTable, cfg.TasksTable, cfg.EventsQueue)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	rc := redis.NewClient(config.RedisOptions(cfg.RedisConnectionString))
	store := storage.NewCache(base, rc, cfg.CacheTTL)

	queue, err := azqueue.NewQueueClientFromConnectionString(cfg.StorageConnectionString, cfg.EventsQueue, nil)
	if err != nil {
		logger.Fatalf("queue client: %v", err)
	}
	processor := projector.NewProcessor(queue, projector.New(store, logger), store, projector.ProcessorConfig{
		Idle:       idle,
		Visibility: visibility,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("queue", cfg.EventsQueue).Info("event processor starting")
	if err := processor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("processor stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rc.Close(); err != nil {
		logger.WithError(err).Warn("redis close")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("tracer shutdown")
	}
}
