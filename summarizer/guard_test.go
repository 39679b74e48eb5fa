package summarizer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

type stubCaller struct {
	err   error
	calls int
}

func (s *stubCaller) Summarize(ctx context.Context, token string, body any) (Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return Normalize([]byte(`{"summary":"ok"}`)), nil
}

func TestGuardOpensOnServerErrorsOnly(t *testing.T) {
	logger, hook := test.NewNullLogger()
	next := &stubCaller{err: &UpstreamError{StatusCode: http.StatusBadRequest}}
	g := NewGuard(next, GuardConfig{Failures: 2, Cooldown: time.Minute}, logger)

	for i := 0; i < 3; i++ {
		_, _ = g.Summarize(context.Background(), "", Request{})
	}
	next.err = &ConfigError{Setting: "SUMMARIZE_MEETING_URL"}
	for i := 0; i < 3; i++ {
		_, _ = g.Summarize(context.Background(), "", Request{})
	}
	if g.State() != "closed" {
		t.Fatalf("client and config errors must not open the breaker, got %s", g.State())
	}

	next.err = &UpstreamError{StatusCode: http.StatusServiceUnavailable}
	for i := 0; i < 2; i++ {
		_, _ = g.Summarize(context.Background(), "", Request{})
	}
	if g.State() != "open" {
		t.Fatalf("expected breaker to open, got %s", g.State())
	}

	before := next.calls
	_, err := g.Summarize(context.Background(), "", Request{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if next.calls != before {
		t.Fatalf("open breaker must not reach the upstream")
	}
	if hook.LastEntry() == nil || hook.LastEntry().Data["to"] != "open" {
		t.Fatalf("expected state change to be logged")
	}
}

func TestGuardPassesThroughWhileClosed(t *testing.T) {
	next := &stubCaller{}
	g := NewGuard(next, GuardConfig{}, nil)
	resp, err := g.Summarize(context.Background(), "tok", Request{RawNotes: "notes"})
	if err != nil || next.calls != 1 {
		t.Fatalf("Summarize() = %v after %d calls", err, next.calls)
	}
	if s, _ := resp.Summary(); s != "ok" {
		t.Fatalf("unexpected summary %q", s)
	}

	next.err = errors.New("dial tcp: refused")
	if _, err := g.Summarize(context.Background(), "", Request{}); errors.Is(err, ErrUnavailable) || err == nil {
		t.Fatalf("transport errors pass through unchanged, got %v", err)
	}
}
