package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"recap/api"
	"recap/config"
	"recap/ingest"
	"recap/logging"
	"recap/storage"
	"recap/summarizer"
	"recap/telemetry"
)

const serviceName = "recap-api"

func main() {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		log.Fatalf("env: %v", err)
	}
	cfg, err := config.Load()
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
	deduper := api.NewRedisDeduper(rc, cfg.DeduperTTL)

	auth, jwks, err := newAuth(cfg, logger)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	sum := summarizer.New(summarizer.Config{
		URL:     cfg.SummarizeURL,
		AnonKey: cfg.ServiceAnonKey,
		Timeout: cfg.SummarizeTimeout,
	}, nil, logger)
	if err := sum.Validate(); err != nil {
		logger.WithError(err).Warn("summarization gateway is not configured, uploads will be saved without summaries")
	}
	workflow := ingest.New(store, summarizer.NewGuard(sum, summarizer.GuardConfig{}, logger), logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding, "Idempotency-Key"},
	}))
	e.Use(echoprometheus.NewMiddleware("recap"))
	e.GET("/metrics", echoprometheus.NewHandler())
	e.Use(api.GzipRequestMiddleware())

	api.Register(e, api.Deps{
		Store:      store,
		Auth:       auth,
		Deduper:    deduper,
		Ingestor:   workflow,
		Summarizer: sum,
		ProjectRef: cfg.ProjectRef(),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenAddr := ":" + cfg.Port
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}
	go func() {
		logger.WithField("addr", listenAddr).Info("starting api")
		if err := e.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server shutdown")
	}
	if jwks != nil {
		jwks.EndBackground()
	}
	if err := rc.Close(); err != nil {
		logger.WithError(err).Warn("redis close")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("tracer shutdown")
	}
}

func newAuth(cfg config.Config, logger *log.Logger) (*api.Auth, *keyfunc.JWKS, error) {
	if cfg.LocalAuthMode {
		logger.Warn("local HS256 auth mode enabled")
		return api.NewAuth(api.AuthConfig{Audience: cfg.AuthAudience, LocalSecret: cfg.LocalAuthSecret}), nil, nil
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.AuthDomain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval: cfg.JWKSRefresh,
		RefreshErrorHandler: func(err error) {
			logger.WithError(err).Warn("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("jwks: %w", err)
	}
	return api.NewAuth(api.AuthConfig{
		JWKS:     jwks,
		Audience: cfg.AuthAudience,
		Issuer:   "https://" + cfg.AuthDomain + "/",
	}), jwks, nil
}
