package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for meeting dates and deadlines.
const DateLayout = "2006-01-02"

// ErrSharedTask is returned when a mutation targets a shared sample task.
var ErrSharedTask = errors.New("shared tasks are read-only")

// Task is an action item, optionally linked to the meeting it came from.
type Task struct {
	ID        string     `json:"id"`
	Ownership Ownership  `json:"user_id"`
	MeetingID string     `json:"meeting_id,omitempty"`
	Title     string     `json:"title"`
	Status    Status     `json:"status"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Owner     string     `json:"owner,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TaskRef addresses a persisted task. It can only be obtained from an owned
// task, so shared rows never reach a store.
type TaskRef struct {
	userID string
	taskID string
}

// Ref returns the persistence reference of the task. ok is false for shared
// tasks.
func (t Task) Ref() (ref TaskRef, ok bool) {
	uid, owned := t.Ownership.UserID()
	if !owned || t.ID == "" {
		return TaskRef{}, false
	}
	return TaskRef{userID: uid, taskID: t.ID}, true
}

func (r TaskRef) UserID() string { return r.userID }
func (r TaskRef) TaskID() string { return r.taskID }

// TaskPatch carries a partial task edit. A Deadline of "" clears the deadline.
type TaskPatch struct {
	Status   *Status `json:"status,omitempty"`
	Owner    *string `json:"owner,omitempty"`
	Deadline *string `json:"deadline,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Status == nil && p.Owner == nil && p.Deadline == nil
}

// Apply returns a copy of t with the patch applied.
func (p TaskPatch) Apply(t Task) (Task, error) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Owner != nil {
		t.Owner = strings.TrimSpace(*p.Owner)
	}
	if p.Deadline != nil {
		d, err := ParseDeadline(*p.Deadline)
		if err != nil {
			return t, err
		}
		t.Deadline = d
	}
	return t, nil
}

// ParseDeadline accepts a calendar date or an RFC 3339 timestamp. An empty
// string yields nil.
func ParseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if d, err := time.Parse(DateLayout, raw); err == nil {
		return &d, nil
	}
	d, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q", raw)
	}
	d = d.UTC()
	return &d, nil
}

// StatusPatch is a patch that only changes the status.
func StatusPatch(s Status) TaskPatch {
	return TaskPatch{Status: &s}
}

// TaskInput is the body of a task creation request.
type TaskInput struct {
	Title     string  `json:"title"`
	MeetingID string  `json:"meeting_id,omitempty"`
	Owner     string  `json:"owner,omitempty"`
	Deadline  string  `json:"deadline,omitempty"`
	Status    *Status `json:"status,omitempty"`
}

// NewTask validates in and builds the owned task row.
func NewTask(id, userID string, in TaskInput, now time.Time) (Task, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "required"
	}
	deadline, err := ParseDeadline(in.Deadline)
	if err != nil {
		fields["deadline"] = "must be YYYY-MM-DD"
	}
	if len(fields) > 0 {
		return Task{}, &ValidationError{Fields: fields}
	}
	t := Task{
		ID:        id,
		Ownership: Owned(userID),
		MeetingID: strings.TrimSpace(in.MeetingID),
		Title:     strings.TrimSpace(in.Title),
		Deadline:  deadline,
		Owner:     strings.TrimSpace(in.Owner),
		CreatedAt: now.UTC(),
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	return t, nil
}
