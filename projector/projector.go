package projector

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"recap/domain"
	"recap/storage"
)

// ErrMalformed marks events that can never be applied.
var ErrMalformed = errors.New("malformed event")

// Store is the record store the projections are written to.
type Store interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	UpdateMeetingTasksCount(ctx context.Context, userID, meetingID string, n int) error
}

// Projector keeps derived meeting fields in line with the task events.
type Projector struct {
	store  Store
	logger *log.Logger
}

func New(store Store, logger *log.Logger) *Projector {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Projector{store: store, logger: logger}
}

// Apply projects one domain event. Events without a projection are
// accepted and ignored.
func (p *Projector) Apply(ctx context.Context, ev domain.Event) error {
	switch ev.Type {
	case domain.TaskCreated:
		var task struct {
			MeetingID string `json:"meeting_id"`
		}
		if len(ev.Data) > 0 {
			if err := sonic.Unmarshal(ev.Data, &task); err != nil {
				return fmt.Errorf("%w: %v", ErrMalformed, err)
			}
		}
		return p.recountTasks(ctx, ev.UserID, task.MeetingID)
	case domain.MeetingCreated, domain.MeetingSummarized, domain.TaskUpdated:
		return nil
	default:
		p.logger.WithFields(log.Fields{"event_id": ev.ID, "type": ev.Type}).Debug("no projection for event")
		return nil
	}
}

func (p *Projector) recountTasks(ctx context.Context, userID, meetingID string) error {
	if userID == "" || meetingID == "" || domain.IsSampleID(meetingID) {
		return nil
	}
	tasks, err := p.store.ListTasks(ctx, userID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	n := 0
	for _, t := range tasks {
		if t.MeetingID == meetingID {
			n++
		}
	}
	if err := p.store.UpdateMeetingTasksCount(ctx, userID, meetingID, n); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			p.logger.WithFields(log.Fields{"user": userID, "meeting_id": meetingID}).Warn("tasks count skipped, meeting not found")
			return nil
		}
		return fmt.Errorf("update tasks count: %w", err)
	}
	p.logger.WithFields(log.Fields{"user": userID, "meeting_id": meetingID, "tasks_count": n}).Debug("meeting tasks count updated")
	return nil
}
