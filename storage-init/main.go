package main

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"recap/config"
	"recap/logging"
	"recap/storage"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		log.Fatalf("env: %v", err)
	}
	debug, err := config.Bool("DEBUG", false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Options{Service: "storage-init", Debug: debug, Format: config.String("LOG_FORMAT", "text")})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	logger.Info("storage init starting")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		logger.Fatal("missing STORAGE_CONNECTION_STRING")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tables := []string{config.String("MEETINGS_TABLE", "meetings"), config.String("TASKS_TABLE", "tasks")}
	queues := []string{config.String("EVENTS_QUEUE", "recap-events")}
	if err := storage.Provision(ctx, connStr, tables, queues, logger); err != nil {
		logger.Fatalf("provision: %v", err)
	}
	logger.Info("storage init complete")
}
