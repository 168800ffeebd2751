package middleware

import (
	"mmDiagnosis/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxTraceIDLength = 128

// TraceID takes the caller's X-Request-ID or generates one, stores it in the
// request context for logging and echoes it back on the response.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > maxTraceIDLength {
				id = uuid.New().String()
			}

			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			return next(c)
		}
	}
}
