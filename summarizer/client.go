package summarizer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

const maxResponseBytes = 1 << 20

// Config holds the summarize endpoint settings.
type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// Request is the payload sent by the ingestion workflow.
type Request struct {
	RawNotes     string   `json:"raw_notes"`
	Title        string   `json:"title,omitempty"`
	MeetingDate  string   `json:"meeting_date,omitempty"`
	Participants []string `json:"participants,omitempty"`
	MeetingID    string   `json:"meeting_id,omitempty"`
}

// Client forwards notes to the summarize endpoint. Every call is exactly one
// request to the upstream.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *log.Logger
}

// New creates a Client. Missing URL or key is reported per call as a
// *ConfigError so the relay can answer with it.
func New(cfg Config, httpClient *http.Client, logger *log.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// Validate reports the first missing setting.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return &ConfigError{Setting: "SUMMARIZE_MEETING_URL", Message: "Summarize meeting URL is not configured"}
	}
	if strings.TrimSpace(c.cfg.AnonKey) == "" {
		return &ConfigError{Setting: "SERVICE_ANON_KEY", Message: "Supabase anon key is not configured"}
	}
	return nil
}

// Summarize posts body to the endpoint and normalizes the answer. token is
// forwarded as a bearer when non-empty. Non-2xx answers are returned as
// *UpstreamError; transport failures are returned as is.
func (c *Client) Summarize(ctx context.Context, token string, body any) (Response, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode summarize request: %w", err)
	}

	return c.do(ctx, token, payload)
}

func (c *Client) do(ctx context.Context, token string, payload []byte) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.AnonKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	c.logger.WithFields(log.Fields{
		"status":      resp.StatusCode,
		"duration_ms": float64(time.Since(start)) / float64(time.Millisecond),
		"bytes":       len(data),
	}).Debug("summarize upstream responded")

	normalized := Normalize(data)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstreamError(resp.StatusCode, normalized, data)
	}
	return normalized, nil
}

func upstreamError(status int, normalized Response, raw []byte) *UpstreamError {
	ue := &UpstreamError{StatusCode: status}
	var obj map[string]any
	if sonic.Unmarshal(raw, &obj) == nil && obj != nil {
		ue.Body = obj
		if msg, ok := obj["error"].(string); ok {
			ue.Message = msg
		}
	}
	if ue.Message == "" {
		if s, ok := normalized.Summary(); ok {
			ue.Message = s
		} else {
			ue.Message = http.StatusText(status)
		}
	}
	return ue
}
