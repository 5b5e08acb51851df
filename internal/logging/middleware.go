package logging

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RequestLoggingMiddleware tags every request with a request ID, reusing
// the one supplied by the client if present, and logs its outcome.
func RequestLoggingMiddleware(logger *Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				c.Request().Header.Set(RequestIDHeader, requestID)
			}
			c.Response().Header().Set(RequestIDHeader, requestID)

			logger.Debug("Request received",
				zap.String("request_id", requestID),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.String("source_ip", c.RealIP()),
				zap.String("user_agent", c.Request().UserAgent()),
			)

			err := next(c)

			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Int64("response_size", c.Response().Size),
				zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0),
			}

			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					fields = append(fields, zap.Any("error", he.Message))
				} else {
					fields = append(fields, zap.Error(err))
				}
				logger.Warn("Request failed", fields...)
				return err
			}

			logger.Info("Request served", fields...)
			return nil
		}
	}
}
