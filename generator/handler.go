package generator

import (
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"recap/summarizer"
)

const (
	Route = "/functions/v1/summarize-meeting"

	maxRequestBytes = 256 << 10
	corsHeaders     = "authorization, x-client-info, apikey, content-type"
)

// Model generates text for a prompt.
type Model interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

var _ Model = (*Gemini)(nil)

type summaryResponse struct {
	Summary string `json:"summary"`
	Success bool   `json:"success"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Register mounts the summarize-meeting function on e.
func Register(e *echo.Echo, m Model, logger *log.Logger) {
	e.OPTIONS(Route, preflight)
	e.POST(Route, summarize(m, logger))
}

func preflight(c echo.Context) error {
	h := c.Response().Header()
	h.Set(echo.HeaderAccessControlAllowOrigin, "*")
	h.Set(echo.HeaderAccessControlAllowMethods, http.MethodPost)
	h.Set(echo.HeaderAccessControlAllowHeaders, corsHeaders)
	return c.String(http.StatusOK, "ok")
}

func summarize(m Model, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.Configured() {
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "GEMINI_API_KEY is not configured"})
		}

		body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBytes))
		if err != nil {
			return failed(c, logger, err)
		}
		var req summarizer.Request
		if err := sonic.Unmarshal(body, &req); err != nil {
			return failed(c, logger, err)
		}
		if req.RawNotes == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "raw_notes is required"})
		}

		summary, err := m.Generate(c.Request().Context(), Prompt(req))
		if err != nil {
			return failed(c, logger, err)
		}
		logger.WithFields(log.Fields{
			"meeting_id": req.MeetingID,
			"chars":      len(summary),
		}).Info("meeting summarized")
		c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
		return c.JSON(http.StatusOK, summaryResponse{Summary: summary, Success: true})
	}
}

func failed(c echo.Context, logger *log.Logger, err error) error {
	logger.WithError(err).Error("error summarizing meeting")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to summarize meeting", Message: err.Error()})
}
