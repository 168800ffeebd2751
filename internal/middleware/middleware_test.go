package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mmDiagnosis/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(TraceID())
	e.Use(RequestMetrics())
	return e
}

func TestTraceID_GeneratesAndPropagates(t *testing.T) {
	e := newEcho()
	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen = logger.TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(echo.HeaderXRequestID))
}

func TestTraceID_KeepsCallerID(t *testing.T) {
	e := newEcho()
	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen = logger.TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	e := newEcho()
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("pq: password authentication failed")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), `"trace_id"`)
}

func TestErrorHandler_HTTPError(t *testing.T) {
	e := newEcho()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}
