package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"recap/summarizer"
)

const summarizeFailed = "Failed to summarize meeting"

// postSummarize relays the body to the summarization gateway with the
// caller's session token. The token is forwarded, not verified. Each request
// is sent upstream exactly once and the answer is passed through with its
// status code.
func postSummarize(s Summarizer, projectRef string, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		m := metricsFrom(c)

		raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize))
		if err != nil {
			m.Fail("read_body", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: summarizeFailed, Message: err.Error()})
		}
		var body any
		if err := sonic.Unmarshal(raw, &body); err != nil {
			m.Fail("decode", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: summarizeFailed, Message: err.Error()})
		}

		var cerr *summarizer.ConfigError
		if err := s.Validate(); errors.As(err, &cerr) {
			return configFailed(c, m, logger, cerr)
		}
		if !hasNotes(body) {
			m.Fail("validation", nil)
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "raw_notes is required"})
		}

		token := forwardedToken(c.Request(), projectRef)
		resp, err := s.Summarize(c.Request().Context(), token, body)
		if err == nil {
			return c.JSON(http.StatusOK, resp)
		}

		var uerr *summarizer.UpstreamError
		switch {
		case errors.As(err, &cerr):
			return configFailed(c, m, logger, cerr)
		case errors.As(err, &uerr):
			m.Fail("upstream", err)
			if uerr.Body != nil {
				return c.JSON(uerr.StatusCode, uerr.Body)
			}
			return c.JSON(uerr.StatusCode, errorResponse{Error: uerr.Message})
		default:
			m.Fail("transport", err)
			logger.WithError(err).Error("error calling summarize function")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: summarizeFailed, Message: err.Error()})
		}
	}
}

func configFailed(c echo.Context, m *requestMetrics, logger *log.Logger, cerr *summarizer.ConfigError) error {
	m.Fail("config", cerr)
	logger.WithError(cerr).WithField("setting", cerr.Setting).Error("summarize relay is not configured")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: cerr.Message})
}

// hasNotes reports whether body carries a non-empty raw_notes value.
func hasNotes(body any) bool {
	obj, ok := body.(map[string]any)
	if !ok {
		return false
	}
	switch v := obj["raw_notes"].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return true
	}
}
