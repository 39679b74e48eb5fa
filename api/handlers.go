package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"recap/domain"
)

const maxBodySize = 256 << 10

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	e.GET("/healthz", healthz())

	g := e.Group("/api", RequestMetricsMiddleware(logger), middleware.BodyLimit("256K"))
	g.POST("/summarize", postSummarize(d.Summarizer, d.ProjectRef, logger))
	g.POST("/meetings", postMeeting(d.Ingestor, d.Auth, d.Deduper, logger))
	g.GET("/meetings", getMeetings(d.Store, d.Auth))
	g.GET("/meetings/:id", getMeeting(d.Store, d.Auth))
	g.GET("/tasks", getTasks(d.Store, d.Auth))
	g.POST("/tasks", postTask(d.Store, d.Auth, logger))
	g.PATCH("/tasks/:id", patchTask(d.Store, d.Auth, logger))
	g.POST("/tasks/:id/advance", advanceTask(d.Store, d.Auth, logger))
	g.GET("/search", getSearch(d.Store, d.Auth))
	g.GET("/dashboard", getDashboard(d.Store, d.Auth))
}

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// authenticate verifies the caller and records the auth timing. The caller
// answers 401 with the error text.
func authenticate(c echo.Context, auth Authenticator) (Session, error) {
	start := time.Now()
	sess, err := auth.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
	m := metricsFrom(c)
	m.ObserveAuth(time.Since(start))
	if err != nil {
		m.Fail("auth", err)
	}
	return sess, err
}

func decodeBody(c echo.Context, dst any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func badRequest(c echo.Context, stage string, err error) error {
	metricsFrom(c).Fail(stage, err)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
}

func serverError(c echo.Context, stage string, err error) error {
	metricsFrom(c).Fail(stage, err)
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError), Message: err.Error()})
}

// workspace returns the caller's meetings and tasks followed by the shared
// samples.
func workspace(ctx context.Context, c echo.Context, store Storage, userID string) ([]domain.Meeting, []domain.Task, error) {
	start := time.Now()
	defer func() { metricsFrom(c).ObserveStore(time.Since(start)) }()

	meetings, err := store.ListMeetings(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := store.ListTasks(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return append(meetings, domain.SampleMeetings()...), append(tasks, domain.SampleTasks()...), nil
}

func publishEvent(ctx context.Context, store Storage, logger *log.Logger, userID, entityID, entityType, eventType string, data any) {
	evt := domain.Event{
		ID:         uuid.NewString(),
		EntityID:   entityID,
		EntityType: entityType,
		Type:       eventType,
		Time:       time.Now().UnixMilli(),
		UserID:     userID,
	}
	entry := logger.WithFields(log.Fields{"user_id": userID, "entity_id": entityID, "event_type": eventType})
	if data != nil {
		raw, err := sonic.Marshal(data)
		if err != nil {
			entry.WithError(err).Warn("failed to encode event data")
			return
		}
		evt.Data = raw
	}
	if err := store.PublishEvent(ctx, evt); err != nil {
		entry.WithError(err).Warn("failed to publish event")
	}
}
