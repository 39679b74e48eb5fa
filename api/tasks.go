package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"recap/domain"
	"recap/storage"
)

type boardResponse struct {
	Columns []domain.Column `json:"columns"`
}

type taskResponse struct {
	Task domain.Task `json:"task"`
}

type createTaskRequest struct {
	Title     string  `json:"title"`
	MeetingID string  `json:"meeting_id"`
	Owner     string  `json:"owner"`
	Deadline  string  `json:"deadline"`
	Status    *string `json:"status"`
}

type patchTaskRequest struct {
	Status   *string `json:"status"`
	Owner    *string `json:"owner"`
	Deadline *string `json:"deadline"`
}

func getTasks(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		start := time.Now()
		tasks, err := store.ListTasks(c.Request().Context(), sess.UserID)
		metricsFrom(c).ObserveStore(time.Since(start))
		if err != nil {
			return serverError(c, "storage", err)
		}
		tasks = append(tasks, domain.SampleTasks()...)
		metricsFrom(c).SetItemsReturned(len(tasks))
		return c.JSON(http.StatusOK, boardResponse{Columns: domain.GroupByStatus(tasks)})
	}
}

func postTask(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		m := metricsFrom(c)
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "decode", err)
		}
		in := domain.TaskInput{Title: req.Title, MeetingID: req.MeetingID, Owner: req.Owner, Deadline: req.Deadline}
		if req.Status != nil {
			s, err := domain.ParseStatus(*req.Status)
			if err != nil {
				m.Fail("validation", err)
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: map[string]string{"status": err.Error()}})
			}
			in.Status = &s
		}
		task, err := domain.NewTask(uuid.NewString(), sess.UserID, in, time.Now())
		if err != nil {
			return validationFailed(c, err)
		}

		if task.MeetingID != "" && !domain.IsSampleID(task.MeetingID) {
			if _, err := store.GetMeeting(ctx, sess.UserID, task.MeetingID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					m.Fail("validation", err)
					return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: map[string]string{"meeting_id": "unknown meeting"}})
				}
				return serverError(c, "storage", err)
			}
		}

		start := time.Now()
		err = store.CreateTask(ctx, task)
		m.ObserveStore(time.Since(start))
		if err != nil {
			return serverError(c, "storage", err)
		}
		publishEvent(ctx, store, logger, sess.UserID, task.ID, "task", domain.TaskCreated, task)
		return c.JSON(http.StatusCreated, taskResponse{Task: task})
	}
}

func patchTask(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if domain.IsSampleID(c.Param("id")) {
			return sharedTask(c)
		}

		var req patchTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return badRequest(c, "decode", err)
		}
		patch := domain.TaskPatch{Owner: req.Owner, Deadline: req.Deadline}
		if req.Status != nil {
			s, err := domain.ParseStatus(*req.Status)
			if err != nil {
				metricsFrom(c).Fail("validation", err)
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: map[string]string{"status": err.Error()}})
			}
			patch.Status = &s
		}
		if patch.Empty() {
			metricsFrom(c).Fail("validation", nil)
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "empty patch"})
		}
		return updateTask(c, store, logger, sess.UserID, func(domain.Task) domain.TaskPatch { return patch })
	}
}

func advanceTask(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if domain.IsSampleID(c.Param("id")) {
			return sharedTask(c)
		}
		return updateTask(c, store, logger, sess.UserID, func(t domain.Task) domain.TaskPatch {
			return domain.StatusPatch(t.Status.Next())
		})
	}
}

func sharedTask(c echo.Context) error {
	metricsFrom(c).Fail("shared", domain.ErrSharedTask)
	return c.JSON(http.StatusForbidden, errorResponse{Error: domain.ErrSharedTask.Error()})
}

func validationFailed(c echo.Context, err error) error {
	metricsFrom(c).Fail("validation", err)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	}
	return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Message: err.Error()})
}

// updateTask loads the caller's task, applies the patch built from it and
// persists only the patched fields.
func updateTask(c echo.Context, store Storage, logger *log.Logger, userID string, build func(domain.Task) domain.TaskPatch) error {
	ctx := c.Request().Context()
	m := metricsFrom(c)
	id := c.Param("id")

	start := time.Now()
	task, err := store.GetTask(ctx, userID, id)
	m.ObserveStore(time.Since(start))
	if err != nil {
		return taskStoreError(c, err)
	}

	patch := build(task)
	updated, err := patch.Apply(task)
	if err != nil {
		m.Fail("validation", err)
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: map[string]string{"deadline": "must be YYYY-MM-DD"}})
	}
	ref, ok := updated.Ref()
	if !ok {
		return sharedTask(c)
	}

	start = time.Now()
	err = store.UpdateTask(ctx, ref, patch)
	m.ObserveStore(time.Since(start))
	if err != nil {
		return taskStoreError(c, err)
	}
	publishEvent(ctx, store, logger, userID, id, "task", domain.TaskUpdated, patch)
	return c.JSON(http.StatusOK, taskResponse{Task: updated})
}

func taskStoreError(c echo.Context, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		metricsFrom(c).Fail("not_found", err)
		return c.JSON(http.StatusNotFound, errorResponse{Error: "task not found"})
	}
	return serverError(c, "storage", err)
}
