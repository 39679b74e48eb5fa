package projector

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"recap/domain"
)

const tracerName = "recap/projector"

// Queue is the subset of the azqueue client the processor needs.
type Queue interface {
	DequeueMessages(ctx context.Context, o *azqueue.DequeueMessagesOptions) (azqueue.DequeueMessagesResponse, error)
	DeleteMessage(ctx context.Context, messageID string, popReceipt string, o *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error)
}

// Cache is evicted for the event's user after every applied event.
type Cache interface {
	Invalidate(ctx context.Context, userID string)
}

type ProcessorConfig struct {
	BatchSize int32
	// Visibility is how long a dequeued message stays hidden. A message
	// that fails is retried once it becomes visible again.
	Visibility time.Duration
	// Idle is the wait between polls of an empty queue.
	Idle time.Duration
	// MaxDequeue drops a message after this many failed deliveries.
	MaxDequeue int64
}

// Processor drains the domain events queue into the projector.
type Processor struct {
	queue     Queue
	projector *Projector
	cache     Cache
	cfg       ProcessorConfig
	logger    *log.Logger
}

func NewProcessor(q Queue, p *Projector, cache Cache, cfg ProcessorConfig, logger *log.Logger) *Processor {
	if cfg.BatchSize <= 0 || cfg.BatchSize > 32 {
		cfg.BatchSize = 16
	}
	if cfg.Visibility <= 0 {
		cfg.Visibility = 30 * time.Second
	}
	if cfg.Idle <= 0 {
		cfg.Idle = time.Second
	}
	if cfg.MaxDequeue <= 0 {
		cfg.MaxDequeue = 5
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Processor{queue: q, projector: p, cache: cache, cfg: cfg, logger: logger}
}

// Run polls until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		n, err := p.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.WithError(err).Warn("receive failed")
		}
		if n > 0 && err == nil {
			continue
		}
		t := time.NewTimer(p.cfg.Idle)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Poll handles one batch and returns the number of messages received.
func (p *Processor) Poll(ctx context.Context) (int, error) {
	n := p.cfg.BatchSize
	vis := int32(p.cfg.Visibility / time.Second)
	resp, err := p.queue.DequeueMessages(ctx, &azqueue.DequeueMessagesOptions{NumberOfMessages: &n, VisibilityTimeout: &vis})
	if err != nil {
		return 0, err
	}
	for _, msg := range resp.Messages {
		if msg == nil || msg.MessageID == nil || msg.PopReceipt == nil {
			continue
		}
		p.handle(ctx, msg)
	}
	return len(resp.Messages), nil
}

func (p *Processor) handle(ctx context.Context, msg *azqueue.DequeuedMessage) {
	entry := p.logger.WithField("message_id", *msg.MessageID)
	text := ""
	if msg.MessageText != nil {
		text = *msg.MessageText
	}

	var ev domain.Event
	if err := sonic.Unmarshal([]byte(text), &ev); err != nil {
		entry.WithError(err).Warn("dropping undecodable event")
		p.delete(ctx, entry, msg)
		return
	}
	entry = entry.WithFields(log.Fields{"event_id": ev.ID, "type": ev.Type, "user": ev.UserID})

	ctx, span := otel.Tracer(tracerName).Start(ctx, "projector.apply")
	span.SetAttributes(attribute.String("recap.event.type", ev.Type), attribute.String("recap.event.id", ev.ID))
	err := p.projector.Apply(ctx, ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	switch {
	case err == nil:
		if p.cache != nil && ev.UserID != "" {
			p.cache.Invalidate(ctx, ev.UserID)
		}
		p.delete(ctx, entry, msg)
	case errors.Is(err, ErrMalformed):
		entry.WithError(err).Warn("dropping malformed event")
		p.delete(ctx, entry, msg)
	case msg.DequeueCount != nil && *msg.DequeueCount >= p.cfg.MaxDequeue:
		entry.WithError(err).WithField("dequeue_count", *msg.DequeueCount).Error("dropping event after repeated failures")
		p.delete(ctx, entry, msg)
	default:
		entry.WithError(err).Warn("event failed, will retry")
	}
}

func (p *Processor) delete(ctx context.Context, entry *log.Entry, msg *azqueue.DequeuedMessage) {
	if _, err := p.queue.DeleteMessage(ctx, *msg.MessageID, *msg.PopReceipt, nil); err != nil {
		entry.WithError(err).Warn("delete message failed")
	}
}
