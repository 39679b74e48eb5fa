package summarizer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNormalizeFieldPriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{name: "summary wins", body: `{"summary":"S","ai_summary":"A","text":"T"}`, want: "S", ok: true},
		{name: "empty summary skipped", body: `{"summary":"  ","ai_summary":"A"}`, want: "A", ok: true},
		{name: "text", body: `{"text":"T","message":"M"}`, want: "T", ok: true},
		{name: "content", body: `{"content":"C","message":"M"}`, want: "C", ok: true},
		{name: "message", body: `{"message":"M"}`, want: "M", ok: true},
		{name: "json string", body: `"just text"`, want: "just text", ok: true},
		{name: "plain text", body: "  plain summary \n", want: "plain summary", ok: true},
		{name: "no recognized field", body: `{"success":true}`, ok: false},
		{name: "non-string field", body: `{"summary":42}`, ok: false},
		{name: "empty", body: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize([]byte(tt.body)).Summary()
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Summary() = %q/%v, want %q/%v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeKeepsUpstreamFields(t *testing.T) {
	resp := Normalize([]byte(`{"ai_summary":"A","success":true}`))
	if resp["success"] != true || resp["ai_summary"] != "A" || resp["summary"] != "A" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestSummarizeSendsHeadersAndBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected authorization: %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type")
		}
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":"Roadmap agreed.","success":true}`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, AnonKey: "anon"}, srv.Client(), nil)
	resp, err := c.Summarize(context.Background(), "tok", Request{RawNotes: "notes here", Title: "Weekly Sync", MeetingID: "m1"})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s, ok := resp.Summary(); !ok || s != "Roadmap agreed." {
		t.Fatalf("unexpected summary %q", s)
	}
	if !strings.Contains(gotBody, `"raw_notes":"notes here"`) || !strings.Contains(gotBody, `"meeting_id":"m1"`) {
		t.Fatalf("unexpected request body: %s", gotBody)
	}
}

func TestSummarizeOmitsAuthorizationWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("authorization header should be omitted")
		}
		_, _ = w.Write([]byte(`{"summary":"ok"}`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, AnonKey: "anon"}, srv.Client(), nil)
	if _, err := c.Summarize(context.Background(), "", map[string]any{"raw_notes": "x"}); err != nil {
		t.Fatalf("summarize: %v", err)
	}
}

func TestSummarizeConfigErrors(t *testing.T) {
	var ce *ConfigError
	_, err := New(Config{AnonKey: "anon"}, nil, nil).Summarize(context.Background(), "", Request{})
	if !errors.As(err, &ce) || ce.Setting != "SUMMARIZE_MEETING_URL" {
		t.Fatalf("expected url config error, got %v", err)
	}
	_, err = New(Config{URL: "http://example.invalid"}, nil, nil).Summarize(context.Background(), "", Request{})
	if !errors.As(err, &ce) || ce.Setting != "SERVICE_ANON_KEY" {
		t.Fatalf("expected anon key config error, got %v", err)
	}
}

func TestSummarizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"raw_notes is required"}`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, AnonKey: "anon"}, srv.Client(), nil)
	_, err := c.Summarize(context.Background(), "", map[string]any{})
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if ue.StatusCode != http.StatusBadRequest || ue.Message != "raw_notes is required" {
		t.Fatalf("unexpected upstream error: %#v", ue)
	}
	if ue.Body["error"] != "raw_notes is required" {
		t.Fatalf("expected upstream body kept, got %#v", ue.Body)
	}
}

func TestSummarizeNeverRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, AnonKey: "anon"}, srv.Client(), nil)
	if _, err := c.Summarize(context.Background(), "", Request{}); err == nil {
		t.Fatalf("expected error")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestSummarizeAlwaysReachesUpstream(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 6 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"summary":"back"}`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, AnonKey: "anon"}, srv.Client(), nil)
	for i := 0; i < 6; i++ {
		var ue *UpstreamError
		if _, err := c.Summarize(context.Background(), "", Request{}); !errors.As(err, &ue) || ue.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("call %d: expected upstream 503, got %v", i+1, err)
		}
	}
	resp, err := c.Summarize(context.Background(), "", Request{})
	if err != nil {
		t.Fatalf("recovered upstream should be reached, got %v", err)
	}
	if s, _ := resp.Summary(); s != "back" || atomic.LoadInt32(&hits) != 7 {
		t.Fatalf("unexpected summary %q after %d hits", s, atomic.LoadInt32(&hits))
	}
}
