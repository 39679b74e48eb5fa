package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestGzipRequestMiddlewareDecompresses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/meetings", bytes.NewReader(gzipBytes(t, `{"title":"Weekly Sync"}`)))
	req.Header.Set(echo.HeaderContentEncoding, "identity, gzip")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	h := GzipRequestMiddleware()(func(c echo.Context) error {
		data, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		got = string(data)
		if c.Request().Header.Get(echo.HeaderContentEncoding) != "" {
			t.Errorf("content encoding should be cleared")
		}
		return c.Request().Body.Close()
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got != `{"title":"Weekly Sync"}` {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestGzipRequestMiddlewareRejectsInvalidBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/meetings", strings.NewReader("not gzip"))
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	c := e.NewContext(req, httptest.NewRecorder())

	err := GzipRequestMiddleware()(func(echo.Context) error {
		t.Fatalf("handler must not run")
		return nil
	})(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestGzipRequestMiddlewarePassThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/meetings", strings.NewReader("plain"))
	c := e.NewContext(req, httptest.NewRecorder())
	err := GzipRequestMiddleware()(func(c echo.Context) error {
		data, _ := io.ReadAll(c.Request().Body)
		if string(data) != "plain" {
			t.Fatalf("unexpected body %q", data)
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestMetricsMiddlewareLogsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tp, exporter, restore := setupTestTracer(t)
	defer restore()

	e := echo.New()
	e.Use(RequestMetricsMiddleware(logger))
	e.GET("/api/things/:id", func(c echo.Context) error {
		if metricsFrom(c) == nil {
			t.Errorf("metrics should be available to handlers")
		}
		return c.String(http.StatusTeapot, "short and stout")
	})
	e.GET("/api/broken", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "down")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/things/42", nil))
	attrs := hook.LastEntry().Data["attributes"].(map[string]any)
	if attrs["http.route"] != "/api/things/:id" || attrs["http.status_code"] != int64(http.StatusTeapot) {
		t.Fatalf("unexpected attributes: %#v", attrs)
	}

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/broken", nil))
	attrs = hook.LastEntry().Data["attributes"].(map[string]any)
	if attrs["http.status_code"] != int64(http.StatusServiceUnavailable) {
		t.Fatalf("HTTPError status should be logged, got %#v", attrs["http.status_code"])
	}

	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}
	if n := len(exporter.GetSpans()); n != 2 {
		t.Fatalf("expected a span per request, got %d", n)
	}
}
