package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Logger interface {
	Log(ctx context.Context, level slog.Level, msg string, args ...any)
}

// NewEchoLogMiddleware returns an Echo middleware that logs handler requests.
// Health and metrics scrapes are logged at debug level.
func NewEchoLogMiddleware(logger Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Method == http.MethodOptions {
				return nil
			}

			logArgs := []any{
				"time", v.StartTime.UTC(),
				"http.method", v.Method,
				"http.uri", v.URI,
				"http.status", v.Status,
				"duration", v.Latency.String(),
			}

			level := slog.LevelInfo
			if v.URI == healthPath || v.URI == metricsPath {
				level = slog.LevelDebug
			}
			if v.Error != nil {
				level = slog.LevelError
				logArgs = append(logArgs, "error", v.Error)
			}

			logger.Log(c.Request().Context(), level, "http request", logArgs...)
			return v.Error
		},
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
	})
}

// NewEchoRecoverMiddleware recovers handler panics and logs them with the
// stack.
func NewEchoRecoverMiddleware(logger Logger) echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Log(c.Request().Context(), slog.LevelError, "recovered from http handler panic",
				"http.uri", c.Request().RequestURI,
				"error", err,
				"stack", string(stack),
			)
			return err
		},
	})
}
