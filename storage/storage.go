package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"recap/domain"
)

// ErrNotFound is returned when a meeting or task does not exist in the
// caller's partition.
var ErrNotFound = errors.New("not found")

// ErrSharedRecord is returned when a shared sample record is handed to a
// write operation.
var ErrSharedRecord = errors.New("shared records are never persisted")

type tableClient interface {
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Storage provides access to the meetings and tasks tables and the events
// queue. Rows are partitioned by owning user id.
type Storage struct {
	meetingsTable tableClient
	tasksTable    tableClient
	eventsQueue   queueClient
}

// noRetry keeps every store call to a single attempt.
var noRetry = policy.RetryOptions{
	MaxRetries: -1,
	TryTimeout: 30 * time.Second,
}

// New creates a Storage instance from the given connection string.
func New(connStr, meetingsTable, tasksTable, eventsQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: noRetry},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: noRetry},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventsQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		meetingsTable: svc.NewClient(meetingsTable),
		tasksTable:    svc.NewClient(tasksTable),
		eventsQueue:   eq,
	}, nil
}

// CreateMeeting inserts a new owned meeting.
func (s *Storage) CreateMeeting(ctx context.Context, m domain.Meeting) error {
	if m.Ownership.IsShared() {
		return ErrSharedRecord
	}
	payload, err := encodeMeeting(m)
	if err != nil {
		return err
	}
	_, err = s.meetingsTable.AddEntity(ctx, payload, nil)
	return err
}

// GetMeeting retrieves one of the user's meetings.
func (s *Storage) GetMeeting(ctx context.Context, userID, id string) (domain.Meeting, error) {
	ent, err := s.meetingsTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return domain.Meeting{}, mapError(err)
	}
	return decodeMeeting(ent.Value)
}

// ListMeetings returns the user's meetings, newest first.
func (s *Storage) ListMeetings(ctx context.Context, userID string) ([]domain.Meeting, error) {
	meetings := []domain.Meeting{}
	err := listPartition(ctx, s.meetingsTable, userID, func(data []byte) error {
		m, err := decodeMeeting(data)
		if err != nil {
			return err
		}
		meetings = append(meetings, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].CreatedAt.After(meetings[j].CreatedAt)
	})
	return meetings, nil
}

// UpdateMeetingSummary merges the AI summary into an existing meeting.
func (s *Storage) UpdateMeetingSummary(ctx context.Context, userID, id, summary string) error {
	payload, err := json.Marshal(meetingSummaryUpdate{
		entity:  entity{PartitionKey: userID, RowKey: id},
		Summary: summary,
	})
	if err != nil {
		return err
	}
	return s.merge(ctx, s.meetingsTable, payload)
}

// UpdateMeetingTasksCount merges the number of tasks linked to a meeting.
func (s *Storage) UpdateMeetingTasksCount(ctx context.Context, userID, id string, n int) error {
	payload, err := json.Marshal(meetingTasksCountUpdate{
		entity:         entity{PartitionKey: userID, RowKey: id},
		TasksCount:     n,
		TasksCountType: edmInt32,
	})
	if err != nil {
		return err
	}
	return s.merge(ctx, s.meetingsTable, payload)
}

// ListTasks returns the user's tasks, oldest first.
func (s *Storage) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks := []domain.Task{}
	err := listPartition(ctx, s.tasksTable, userID, func(data []byte) error {
		t, err := decodeTask(data)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// GetTask retrieves one of the user's tasks.
func (s *Storage) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	ent, err := s.tasksTable.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return domain.Task{}, mapError(err)
	}
	return decodeTask(ent.Value)
}

// CreateTask inserts an owned task.
func (s *Storage) CreateTask(ctx context.Context, t domain.Task) error {
	ref, ok := t.Ref()
	if !ok {
		return ErrSharedRecord
	}
	payload, err := encodeTask(ref, t)
	if err != nil {
		return err
	}
	_, err = s.tasksTable.AddEntity(ctx, payload, nil)
	return err
}

// UpdateTask merges patch into the referenced task. Concurrent edits are
// last write wins.
func (s *Storage) UpdateTask(ctx context.Context, ref domain.TaskRef, patch domain.TaskPatch) error {
	payload, err := encodeTaskPatch(ref, patch)
	if err != nil {
		return err
	}
	return s.merge(ctx, s.tasksTable, payload)
}

// PublishEvent sends evt to the events queue.
func (s *Storage) PublishEvent(ctx context.Context, evt domain.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = s.eventsQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}

func (s *Storage) merge(ctx context.Context, table tableClient, payload []byte) error {
	et := azcore.ETagAny
	_, err := table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return mapError(err)
}

func listPartition(ctx context.Context, table tableClient, userID string, fn func([]byte) error) error {
	filter := fmt.Sprintf("PartitionKey eq '%s'", strings.ReplaceAll(userID, "'", "''"))
	pager := table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, e := range resp.Entities {
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, respErr.ErrorCode)
	}
	return err
}
