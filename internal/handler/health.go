package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health answers load balancer probes with "ok".  When db is given it is
// pinged first and an unreachable database turns the probe into a 503.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				zap.L().Warn("health: database ping failed", zap.Error(err))
				return c.String(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}

// ErrorHandler renders the not-found page for unknown routes and defers
// everything else to echo's default handler.
func ErrorHandler(e *echo.Echo, pages *Pages) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound && c.Request().Method == http.MethodGet {
			if rerr := pages.NotFound(c, ""); rerr == nil {
				return
			}
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
