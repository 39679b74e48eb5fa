package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"
	DefaultModel   = "gemini-pro"

	apiVersion = "v1beta"
	tracerName = "recap/generator"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("model returned no text")

// APIError is an error payload returned by the model endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Status     string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini %d: %s", e.StatusCode, e.Message)
}

// GeminiConfig selects the model endpoint.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Gemini generates text with the Gemini API. Calls are single attempts.
type Gemini struct {
	cfg    GeminiConfig
	client *genai.Client
	logger *log.Logger
}

// NewGemini builds the API client. Without an API key the model is left
// unconfigured and no client is created.
func NewGemini(ctx context.Context, cfg GeminiConfig, httpClient *http.Client, logger *log.Logger) (*Gemini, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	g := &Gemini{cfg: cfg, logger: logger}
	if !g.Configured() {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

// Configured reports whether an API key is set.
func (g *Gemini) Configured() bool {
	return strings.TrimSpace(g.cfg.APIKey) != ""
}

// Generate sends prompt to the model and returns the text of the first
// candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gemini.generateContent")
	defer span.End()
	span.SetAttributes(attribute.String("gen_ai.request.model", g.cfg.Model))

	text, err := g.generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("gen_ai.response.chars", len(text)))
	return text, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", errors.New("gemini client is not configured")
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), nil)
	entry := g.logger.WithFields(log.Fields{
		"model":       g.cfg.Model,
		"duration_ms": float64(time.Since(start)) / float64(time.Millisecond),
	})
	if err != nil {
		entry.WithError(err).Debug("gemini call failed")
		return "", apiError(err)
	}
	entry.Debug("gemini responded")

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	if c := resp.Candidates[0]; c != nil && c.Content != nil {
		for _, p := range c.Content.Parts {
			if p != nil {
				b.WriteString(p.Text)
			}
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

// apiError maps SDK errors onto *APIError. Other errors are wrapped as is.
func apiError(err error) error {
	var val genai.APIError
	if errors.As(err, &val) {
		return &APIError{StatusCode: val.Code, Message: val.Message, Status: val.Status}
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return &APIError{StatusCode: ptr.Code, Message: ptr.Message, Status: ptr.Status}
	}
	return fmt.Errorf("gemini request: %w", err)
}
