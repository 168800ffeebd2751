package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"mmDiagnosis/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler renders errors that escaped a handler. Internal details are
// logged, never returned.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	}

	traceID := logger.TraceIDFromContext(c.Request().Context())
	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled request error",
			"trace_id", traceID,
			"path", c.Path(),
			"error", err,
		)
	}

	body := errorBody{Message: message, TraceID: traceID}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, body)
	}
	if writeErr != nil {
		logger.Error("Failed to write error response", "error", writeErr)
	}
}
