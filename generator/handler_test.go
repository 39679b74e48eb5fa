package generator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
)

type stubModel struct {
	configured bool
	generateFn func(ctx context.Context, prompt string) (string, error)
	prompts    []string
}

func (m *stubModel) Configured() bool { return m.configured }

func (m *stubModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "summary text", nil
}

func serve(t *testing.T, m Model, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	logger, _ := test.NewNullLogger()
	e := echo.New()
	Register(e, m, logger)
	req := httptest.NewRequest(method, Route, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSummarizeSuccess(t *testing.T) {
	m := &stubModel{configured: true}
	rec := serve(t, m, http.MethodPost, `{"raw_notes":"We agreed to ship.","title":"Weekly Sync"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["summary"] != "summary text" || out["success"] != true {
		t.Fatalf("unexpected body %v", out)
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowOrigin) != "*" {
		t.Fatalf("missing CORS origin header")
	}
	if len(m.prompts) != 1 || !strings.Contains(m.prompts[0], "Meeting Title: Weekly Sync") {
		t.Fatalf("unexpected prompts %v", m.prompts)
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name      string
		model     *stubModel
		body      string
		wantCode  int
		wantError string
	}{
		{name: "no key", model: &stubModel{}, body: `{"raw_notes":"x"}`, wantCode: 500, wantError: "GEMINI_API_KEY is not configured"},
		{name: "missing notes", model: &stubModel{configured: true}, body: `{"title":"t"}`, wantCode: 400, wantError: "raw_notes is required"},
		{name: "invalid json", model: &stubModel{configured: true}, body: `{`, wantCode: 500, wantError: "Failed to summarize meeting"},
		{
			name: "model failure",
			model: &stubModel{configured: true, generateFn: func(context.Context, string) (string, error) {
				return "", errors.New("quota exceeded")
			}},
			body:      `{"raw_notes":"x"}`,
			wantCode:  500,
			wantError: "Failed to summarize meeting",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.model, http.MethodPost, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			var out errorResponse
			if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Error != tt.wantError {
				t.Fatalf("error = %q, want %q", out.Error, tt.wantError)
			}
			if tt.name == "model failure" && out.Message != "quota exceeded" {
				t.Fatalf("message = %q", out.Message)
			}
		})
	}
}

func TestSummarizePreflight(t *testing.T) {
	rec := serve(t, &stubModel{}, http.MethodOptions, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("preflight = %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowHeaders); got != corsHeaders {
		t.Fatalf("allow headers = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowMethods); got != http.MethodPost {
		t.Fatalf("allow methods = %q", got)
	}
}
