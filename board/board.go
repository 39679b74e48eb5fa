package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"recap/domain"
)

// ErrUnknownTask is returned for an id that is not on the board.
var ErrUnknownTask = errors.New("unknown task")

// Store is the authoritative task source.
type Store interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, ref domain.TaskRef, patch domain.TaskPatch) error
}

// PersistError reports a failed task update. Reload is set when reloading
// the board afterwards failed as well; the optimistic state is then kept.
type PersistError struct {
	TaskID string
	Err    error
	Reload error
}

func (e *PersistError) Error() string {
	if e.Reload != nil {
		return fmt.Sprintf("update task %s: %v (reload failed: %v)", e.TaskID, e.Err, e.Reload)
	}
	return fmt.Sprintf("update task %s: %v", e.TaskID, e.Err)
}

func (e *PersistError) Unwrap() []error {
	if e.Reload != nil {
		return []error{e.Err, e.Reload}
	}
	return []error{e.Err}
}

// Board holds the local task state. Edits apply locally first and are then
// persisted; a failed write is rolled back by reloading from the store.
// Shared tasks are edited locally only.
type Board struct {
	store  Store
	logger *log.Logger

	mu    sync.Mutex
	tasks []domain.Task
}

func New(store Store, logger *log.Logger) *Board {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Board{store: store, logger: logger}
}

// Load replaces the local state with the store's tasks.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.tasks = append([]domain.Task(nil), tasks...)
	b.mu.Unlock()
	return nil
}

// Tasks returns a copy of the local state.
func (b *Board) Tasks() []domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Task(nil), b.tasks...)
}

// Task returns one task from the local state.
func (b *Board) Task(id string) (domain.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		return b.tasks[i], true
	}
	return domain.Task{}, false
}

// Columns groups the local state into the three board columns.
func (b *Board) Columns() []domain.Column {
	return domain.GroupByStatus(b.Tasks())
}

func (b *Board) SetStatus(ctx context.Context, id string, s domain.Status) (domain.Task, error) {
	return b.edit(ctx, id, func(domain.Task) domain.TaskPatch {
		return domain.StatusPatch(s)
	})
}

// Advance cycles the task to its next status.
func (b *Board) Advance(ctx context.Context, id string) (domain.Task, error) {
	return b.edit(ctx, id, func(t domain.Task) domain.TaskPatch {
		return domain.StatusPatch(t.Status.Next())
	})
}

func (b *Board) SetOwner(ctx context.Context, id, owner string) (domain.Task, error) {
	return b.edit(ctx, id, func(domain.Task) domain.TaskPatch {
		return domain.TaskPatch{Owner: &owner}
	})
}

// SetDeadline sets the deadline; an empty value clears it.
func (b *Board) SetDeadline(ctx context.Context, id, deadline string) (domain.Task, error) {
	if _, err := domain.ParseDeadline(deadline); err != nil {
		return domain.Task{}, err
	}
	return b.edit(ctx, id, func(domain.Task) domain.TaskPatch {
		return domain.TaskPatch{Deadline: &deadline}
	})
}

// edit applies the patch built from the current task under the lock and
// persists it outside the lock.
func (b *Board) edit(ctx context.Context, id string, build func(domain.Task) domain.TaskPatch) (domain.Task, error) {
	b.mu.Lock()
	i := b.indexOf(id)
	if i < 0 {
		b.mu.Unlock()
		return domain.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	patch := build(b.tasks[i])
	updated, err := patch.Apply(b.tasks[i])
	if err != nil {
		b.mu.Unlock()
		return domain.Task{}, err
	}
	b.tasks[i] = updated
	b.mu.Unlock()

	ref, ok := updated.Ref()
	if !ok {
		b.logger.WithField("task_id", id).Debug("shared task edited locally")
		return updated, nil
	}

	if err := b.store.UpdateTask(ctx, ref, patch); err != nil {
		perr := &PersistError{TaskID: id, Err: err}
		entry := b.logger.WithError(err).WithField("task_id", id)
		if rerr := b.Load(ctx); rerr != nil {
			perr.Reload = rerr
			entry.WithField("reload_error", rerr.Error()).Error("task update failed and reload failed")
		} else {
			entry.Warn("task update failed, board reloaded")
		}
		return updated, perr
	}
	return updated, nil
}

func (b *Board) indexOf(id string) int {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
