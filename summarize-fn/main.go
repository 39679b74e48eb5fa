package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"recap/config"
	"recap/generator"
	"recap/logging"
	"recap/telemetry"
)

const serviceName = "summarize-fn"

func main() {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		log.Fatalf("env: %v", err)
	}
	debug, err := config.Bool("DEBUG", false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	timeout, err := config.Duration("GEMINI_TIMEOUT", 60*time.Second)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Options{
		Service: serviceName,
		Debug:   debug,
		Format:  config.String("LOG_FORMAT", "text"),
		File:    os.Getenv("LOG_FILE"),
	})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	shutdownTracing := telemetry.Setup(logger, serviceName)

	model, err := generator.NewGemini(context.Background(), generator.GeminiConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Model:   config.String("GEMINI_MODEL", generator.DefaultModel),
		BaseURL: config.String("GEMINI_BASE_URL", generator.DefaultBaseURL),
		Timeout: timeout,
	}, nil, logger)
	if err != nil {
		logger.Fatalf("gemini: %v", err)
	}
	if !model.Configured() {
		logger.Warn("GEMINI_API_KEY is not set, summarize requests will fail")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("summarize_fn"))
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	generator.Register(e, model, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + config.String("PORT", "54321")
	go func() {
		logger.WithField("addr", addr).Info("starting summarize function")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("tracer shutdown")
	}
}
