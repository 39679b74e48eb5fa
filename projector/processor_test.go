package projector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"recap/domain"
)

type fakeQueue struct {
	mu         sync.Mutex
	batches    [][]*azqueue.DequeuedMessage
	dequeueErr error
	deleted    []string
	opts       []*azqueue.DequeueMessagesOptions
}

func (q *fakeQueue) DequeueMessages(ctx context.Context, o *azqueue.DequeueMessagesOptions) (azqueue.DequeueMessagesResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.opts = append(q.opts, o)
	if q.dequeueErr != nil {
		return azqueue.DequeueMessagesResponse{}, q.dequeueErr
	}
	if len(q.batches) == 0 {
		return azqueue.DequeueMessagesResponse{}, nil
	}
	batch := q.batches[0]
	q.batches = q.batches[1:]
	return azqueue.DequeueMessagesResponse{Messages: batch}, nil
}

func (q *fakeQueue) DeleteMessage(ctx context.Context, messageID string, popReceipt string, o *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, messageID)
	return azqueue.DeleteMessageResponse{}, nil
}

type fakeCache struct {
	users []string
}

func (c *fakeCache) Invalidate(ctx context.Context, userID string) {
	c.users = append(c.users, userID)
}

func message(t *testing.T, id string, dequeued int64, ev any) *azqueue.DequeuedMessage {
	t.Helper()
	var text string
	switch v := ev.(type) {
	case string:
		text = v
	default:
		data, err := sonic.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		text = string(data)
	}
	receipt := "pop-" + id
	return &azqueue.DequeuedMessage{MessageID: &id, PopReceipt: &receipt, MessageText: &text, DequeueCount: &dequeued}
}

func TestPollAppliesAndDeletes(t *testing.T) {
	store := &fakeStore{tasks: []domain.Task{{ID: "t1", Ownership: domain.Owned("u1"), MeetingID: "m1"}}}
	cache := &fakeCache{}
	q := &fakeQueue{batches: [][]*azqueue.DequeuedMessage{{
		message(t, "q1", 1, taskCreated("u1", "m1")),
		message(t, "q2", 1, domain.Event{Type: domain.MeetingCreated, UserID: "u1"}),
	}}}
	p := NewProcessor(q, New(store, nil), cache, ProcessorConfig{BatchSize: 8, Visibility: 45 * time.Second}, nil)

	n, err := p.Poll(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("Poll() = %d, %v", n, err)
	}
	if len(q.deleted) != 2 || len(store.updates) != 1 || len(cache.users) != 2 {
		t.Fatalf("deleted=%v updates=%v invalidated=%v", q.deleted, store.updates, cache.users)
	}
	if o := q.opts[0]; o == nil || *o.NumberOfMessages != 8 || *o.VisibilityTimeout != 45 {
		t.Fatalf("unexpected dequeue options %+v", o)
	}
}

func TestPollFailureHandling(t *testing.T) {
	logger, hook := test.NewNullLogger()
	store := &fakeStore{listErr: errors.New("table unavailable")}
	cache := &fakeCache{}
	q := &fakeQueue{batches: [][]*azqueue.DequeuedMessage{{
		message(t, "retry", 1, taskCreated("u1", "m1")),
		message(t, "poison", 5, taskCreated("u1", "m1")),
		message(t, "garbage", 1, "not json"),
		message(t, "malformed", 1, `{"type":"task-created","userId":"u1","data":"x"}`),
	}}}
	p := NewProcessor(q, New(store, logger), cache, ProcessorConfig{MaxDequeue: 5}, logger)

	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	want := map[string]bool{"poison": true, "garbage": true, "malformed": true}
	if len(q.deleted) != len(want) {
		t.Fatalf("deleted = %v", q.deleted)
	}
	for _, id := range q.deleted {
		if !want[id] {
			t.Fatalf("message %s should stay on the queue", id)
		}
	}
	if len(cache.users) != 0 {
		t.Fatalf("failed events must not invalidate the cache: %v", cache.users)
	}
	var dropped bool
	for _, e := range hook.AllEntries() {
		if e.Message == "dropping event after repeated failures" {
			dropped = true
		}
	}
	if !dropped {
		t.Fatalf("expected an error log for the poison message")
	}
}

func TestPollRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	q := &fakeQueue{batches: [][]*azqueue.DequeuedMessage{{message(t, "q1", 1, taskCreated("u1", "m1"))}}}
	p := NewProcessor(q, New(&fakeStore{listErr: errors.New("down")}, nil), nil, ProcessorConfig{}, nil)
	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "projector.apply" || spans[0].Status().Description != "list tasks: down" {
		t.Fatalf("unexpected spans %+v", spans)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	q := &fakeQueue{dequeueErr: errors.New("unreachable")}
	logger, _ := test.NewNullLogger()
	p := NewProcessor(q, New(&fakeStore{}, nil), nil, ProcessorConfig{Idle: 10 * time.Millisecond}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() = %v", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.opts) < 2 {
		t.Fatalf("expected repeated polls, got %d", len(q.opts))
	}
}
