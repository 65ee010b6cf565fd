package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// RateLimitEchoKeyGetter returns the key requests are throttled by. When it
// reports false the client address is used.
type RateLimitEchoKeyGetter func(c echo.Context) (string, bool)

func NewEchoRateLimiterMiddleware(limiter RateLimiter, keyGetter RateLimitEchoKeyGetter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := keyGetter(c)
			if !ok {
				key = c.RealIP()
			}
			if err := limiter.Wait(c.Request().Context(), key); err != nil {
				if errors.Is(err, context.Canceled) {
					return c.NoContent(http.StatusRequestTimeout)
				}
				return c.NoContent(http.StatusTooManyRequests)
			}
			return next(c)
		}
	}
}
