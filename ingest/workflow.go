package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recap/domain"
	"recap/summarizer"
)

// ErrPersist wraps a failure to insert the meeting.
var ErrPersist = errors.New("failed to save meeting")

// Outcome describes how far the workflow got after the meeting was saved.
type Outcome string

const (
	OutcomeSummarized         Outcome = "summarized"
	OutcomeSummaryUnavailable Outcome = "summary-unavailable"
	OutcomeSummarizeFailed    Outcome = "summarize-failed"
	OutcomeSummarizeSkipped   Outcome = "summarize-skipped"
	OutcomeSummaryNotSaved    Outcome = "summary-not-saved"
)

// Store is the subset of the record store the workflow writes to.
type Store interface {
	CreateMeeting(ctx context.Context, m domain.Meeting) error
	UpdateMeetingSummary(ctx context.Context, userID, id, summary string) error
	PublishEvent(ctx context.Context, evt domain.Event) error
}

// Summarizer calls the summarization gateway.
type Summarizer interface {
	Summarize(ctx context.Context, token string, body any) (summarizer.Response, error)
}

// Result is the meeting as persisted together with the summarization
// outcome. Warning is empty when the outcome is OutcomeSummarized.
type Result struct {
	Meeting domain.Meeting `json:"meeting"`
	Outcome Outcome        `json:"outcome"`
	Warning string         `json:"warning,omitempty"`
}

// Workflow validates an upload, saves the meeting, summarizes it and patches
// the summary in. Only validation and the initial insert can fail the run.
type Workflow struct {
	store      Store
	summarizer Summarizer
	logger     *log.Logger
	tracer     trace.Tracer
	newID      func() string
	now        func() time.Time
}

func New(store Store, s Summarizer, logger *log.Logger) *Workflow {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Workflow{
		store:      store,
		summarizer: s,
		logger:     logger,
		tracer:     otel.Tracer("recap/ingest"),
		newID:      func() string { return uuid.NewString() },
		now:        time.Now,
	}
}

// Run executes the workflow for userID. token is forwarded to the gateway
// when non-empty.
func (w *Workflow) Run(ctx context.Context, userID, token string, in domain.UploadInput) (Result, error) {
	ctx, span := w.tracer.Start(ctx, "ingest.run", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if err := in.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation")
		return Result{}, err
	}

	meeting := domain.NewMeeting(w.newID(), userID, in, w.now())
	span.SetAttributes(attribute.String("meeting.id", meeting.ID))
	entry := w.logger.WithFields(log.Fields{"user_id": userID, "meeting_id": meeting.ID})

	if err := w.persist(ctx, meeting); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist")
		entry.WithError(err).Error("failed to save meeting")
		return Result{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	w.publish(ctx, entry, meeting, domain.MeetingCreated, nil)

	res := w.summarize(ctx, entry, token, meeting)
	span.SetAttributes(attribute.String("ingest.outcome", string(res.Outcome)))
	span.SetStatus(codes.Ok, "")

	fields := log.Fields{"outcome": res.Outcome}
	if res.Outcome == OutcomeSummarized {
		entry.WithFields(fields).Info("meeting ingested")
	} else {
		entry.WithFields(fields).Warn(res.Warning)
	}
	return res, nil
}

func (w *Workflow) persist(ctx context.Context, m domain.Meeting) error {
	ctx, span := w.tracer.Start(ctx, "ingest.persist")
	defer span.End()
	err := w.store.CreateMeeting(ctx, m)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (w *Workflow) summarize(ctx context.Context, entry *log.Entry, token string, m domain.Meeting) Result {
	res := Result{Meeting: m}

	sctx, span := w.tracer.Start(ctx, "ingest.summarize", trace.WithAttributes(attribute.Bool("auth.token_present", token != "")))
	resp, err := w.summarizer.Summarize(sctx, token, summarizer.Request{
		RawNotes:     m.RawNotes,
		Title:        m.Title,
		MeetingDate:  m.MeetingDate,
		Participants: m.Participants,
		MeetingID:    m.ID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		if errors.Is(err, summarizer.ErrUnavailable) {
			res.Outcome = OutcomeSummarizeSkipped
			res.Warning = "Meeting saved, but summarization is temporarily unavailable. You can retry later."
			return res
		}
		entry.WithError(err).Warn("summarization failed")
		res.Outcome = OutcomeSummarizeFailed
		res.Warning = "Meeting saved, but summarization failed. You can retry later."
		return res
	}
	summary, ok := resp.Summary()
	span.SetAttributes(attribute.Bool("summary.present", ok))
	span.End()
	if !ok {
		res.Outcome = OutcomeSummaryUnavailable
		res.Warning = "Meeting saved, but the summarizer returned no summary."
		return res
	}

	uid, _ := m.Ownership.UserID()
	pctx, pspan := w.tracer.Start(ctx, "ingest.patch_summary")
	err = w.store.UpdateMeetingSummary(pctx, uid, m.ID, summary)
	if err != nil {
		pspan.RecordError(err)
		pspan.SetStatus(codes.Error, err.Error())
		pspan.End()
		entry.WithError(err).Warn("failed to save summary")
		res.Outcome = OutcomeSummaryNotSaved
		res.Warning = "Meeting saved and summarized, but the summary could not be saved."
		return res
	}
	pspan.End()

	res.Meeting.Summary = &summary
	res.Outcome = OutcomeSummarized
	w.publish(ctx, entry, res.Meeting, domain.MeetingSummarized, map[string]string{"summary": summary})
	return res
}

func (w *Workflow) publish(ctx context.Context, entry *log.Entry, m domain.Meeting, eventType string, data any) {
	uid, _ := m.Ownership.UserID()
	evt := domain.Event{
		ID:         uuid.NewString(),
		EntityID:   m.ID,
		EntityType: "meeting",
		Type:       eventType,
		Time:       w.now().UnixMilli(),
		UserID:     uid,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			entry.WithError(err).Warn("failed to encode event data")
			return
		}
		evt.Data = raw
	}
	if err := w.store.PublishEvent(ctx, evt); err != nil {
		entry.WithError(err).WithField("event_type", eventType).Warn("failed to publish event")
	}
}
