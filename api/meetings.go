package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"recap/domain"
	"recap/storage"
)

const headerIdempotencyKey = "Idempotency-Key"

type meetingResponse struct {
	Meeting domain.Meeting `json:"meeting"`
	Tasks   []domain.Task  `json:"tasks"`
}

// postMeeting runs the upload workflow. A repeated Idempotency-Key is
// answered with 409; the key is released again when the upload is rejected
// or the meeting could not be saved.
func postMeeting(ingestor Ingestor, auth Authenticator, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		m := metricsFrom(c)
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var in domain.UploadInput
		if err := decodeBody(c, &in); err != nil {
			return badRequest(c, "decode", err)
		}

		key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
		if key != "" && deduper != nil {
			added, err := deduper.Add(ctx, sess.UserID, key)
			if err != nil {
				return serverError(c, "deduper", err)
			}
			if !added {
				m.Fail("duplicate", nil)
				return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate upload", Message: "a meeting with this Idempotency-Key was already submitted"})
			}
		}

		res, err := ingestor.Run(ctx, sess.UserID, sess.Token, in)
		if err != nil {
			if key != "" && deduper != nil {
				if rerr := deduper.Remove(ctx, sess.UserID, key); rerr != nil {
					logger.WithError(rerr).WithField("user_id", sess.UserID).Warn("failed to release idempotency key")
				}
			}
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				m.Fail("validation", err)
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
			}
			m.Fail("persist", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to save meeting", Message: err.Error()})
		}
		return c.JSON(http.StatusCreated, res)
	}
}

func getMeetings(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		start := time.Now()
		meetings, err := store.ListMeetings(c.Request().Context(), sess.UserID)
		metricsFrom(c).ObserveStore(time.Since(start))
		if err != nil {
			return serverError(c, "storage", err)
		}
		meetings = append(meetings, domain.SampleMeetings()...)
		metricsFrom(c).SetItemsReturned(len(meetings))
		return c.JSON(http.StatusOK, meetings)
	}
}

func getMeeting(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		sess, err := authenticate(c, auth)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id := c.Param("id")

		if domain.IsSampleID(id) {
			for _, mt := range domain.SampleMeetings() {
				if mt.ID != id {
					continue
				}
				start := time.Now()
				tasks, err := store.ListTasks(ctx, sess.UserID)
				metricsFrom(c).ObserveStore(time.Since(start))
				if err != nil {
					return serverError(c, "storage", err)
				}
				tasks = append(tasks, domain.SampleTasks()...)
				return c.JSON(http.StatusOK, meetingResponse{Meeting: mt, Tasks: tasksOfMeeting(tasks, id)})
			}
		}

		start := time.Now()
		mt, err := store.GetMeeting(ctx, sess.UserID, id)
		if err != nil {
			metricsFrom(c).ObserveStore(time.Since(start))
			if errors.Is(err, storage.ErrNotFound) {
				metricsFrom(c).Fail("not_found", err)
				return c.JSON(http.StatusNotFound, errorResponse{Error: "meeting not found"})
			}
			return serverError(c, "storage", err)
		}
		tasks, err := store.ListTasks(ctx, sess.UserID)
		metricsFrom(c).ObserveStore(time.Since(start))
		if err != nil {
			return serverError(c, "storage", err)
		}
		return c.JSON(http.StatusOK, meetingResponse{Meeting: mt, Tasks: tasksOfMeeting(tasks, id)})
	}
}

func tasksOfMeeting(tasks []domain.Task, meetingID string) []domain.Task {
	out := []domain.Task{}
	for _, t := range tasks {
		if t.MeetingID == meetingID {
			out = append(out, t)
		}
	}
	return out
}
