package generator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
)

func newTestGemini(t *testing.T, cfg GeminiConfig, client *http.Client) *Gemini {
	t.Helper()
	g, err := NewGemini(context.Background(), cfg, client, nil)
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	return g
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		data, _ := io.ReadAll(r.Body)
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := sonic.Unmarshal(data, &req); err == nil && len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotText = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Short "},{"text":"summary."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g := newTestGemini(t, GeminiConfig{APIKey: "k1", BaseURL: srv.URL}, srv.Client())
	text, err := g.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "Short summary." {
		t.Fatalf("text = %q", text)
	}
	if gotPath != "/v1beta/models/gemini-pro:generateContent" || gotKey != "k1" || gotText != "hello" {
		t.Fatalf("unexpected request path=%q key=%q text=%q", gotPath, gotKey, gotText)
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    error
	}{
		{name: "api error", status: 400, body: `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, wantStatus: 400},
		{name: "quota", status: 429, body: `{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`, wantStatus: 429},
		{name: "plain error", status: 503, body: "overloaded", wantStatus: 503},
		{name: "no candidates", status: 200, body: `{"candidates":[]}`, wantErr: ErrEmptyResponse},
		{name: "empty parts", status: 200, body: `{"candidates":[{"content":{"parts":[]}}]}`, wantErr: ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestGemini(t, GeminiConfig{APIKey: "k", BaseURL: srv.URL}, srv.Client()).Generate(context.Background(), "p")
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantStatus != 0 {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.wantStatus {
					t.Fatalf("error = %#v, want APIError %d", err, tt.wantStatus)
				}
			}
		})
	}
}

func TestGeminiBlockedPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	_, err := newTestGemini(t, GeminiConfig{APIKey: "k", BaseURL: srv.URL}, srv.Client()).Generate(context.Background(), "p")
	if err == nil || err.Error() != "prompt blocked: SAFETY" {
		t.Fatalf("error = %v", err)
	}
}

func TestGeminiConfigured(t *testing.T) {
	blank := newTestGemini(t, GeminiConfig{APIKey: " "}, nil)
	if blank.Configured() {
		t.Fatalf("blank key should not count as configured")
	}
	if _, err := blank.Generate(context.Background(), "p"); err == nil {
		t.Fatalf("unconfigured model must not generate")
	}
	if !newTestGemini(t, GeminiConfig{APIKey: "k"}, nil).Configured() {
		t.Fatalf("key should count as configured")
	}
}
