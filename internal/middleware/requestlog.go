package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/kasirku/internal/metrics"
)

// RequestLogger writes one structured line per request and records its
// latency.  Handler errors are passed to echo's error handler first so the
// logged status is the one the client saw.
func RequestLogger(mx *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)
			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			mx.ObserveRequest(c.Request().Method, route, strconv.Itoa(status/100)+"xx", elapsed)

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
				zap.String("ip", c.RealIP()),
				zap.String("user", userKey(c)),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			if status >= 500 {
				zap.L().Error("request", fields...)
			} else {
				zap.L().Info("request", fields...)
			}
			return nil
		}
	}
}
