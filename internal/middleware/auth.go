package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/kasirku/internal/metrics"
	"github.com/iliyamo/kasirku/internal/session"
)

// Context keys under which the Auth Gate stores the request's session state.
const (
	ctxSession  = "session"
	ctxIdentity = "identity"
)

const (
	loginPath        = "/auth/login"
	loginTimeoutPath = "/auth/login?timeout=1"
)

type gateOutcome int

const (
	gateOK gateOutcome = iota
	gateMissing
	gateExpired
)

// authenticate loads the session, enforces the inactivity timeout and
// refreshes last activity.  Store failures count as a missing session so
// the visitor is sent to the login page rather than shown an error.
func authenticate(c echo.Context, m *session.Manager, mx *metrics.Metrics) gateOutcome {
	ctx := c.Request().Context()
	d, err := m.Load(ctx, c.Request())
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			zap.L().Warn("session lookup failed", zap.Error(err))
		}
		return gateMissing
	}
	if m.Expired(d) {
		if err := m.Destroy(ctx, c.Response(), d.ID); err != nil {
			zap.L().Warn("destroy expired session failed", zap.Error(err))
		}
		mx.SessionExpired()
		zap.L().Info("session expired", zap.Uint64("user_id", d.UserID), zap.Time("last_activity", d.LastActivity))
		return gateExpired
	}
	if err := m.Touch(ctx, d); err != nil {
		zap.L().Warn("session touch failed", zap.Error(err))
		return gateMissing
	}
	c.Set(ctxSession, d)
	c.Set(ctxIdentity, m.Identity(d))
	return gateOK
}

// RequireSession is the Auth Gate for HTML pages.  Anonymous visitors are
// redirected to the login page (remembering the page they asked for);
// expired sessions are cleared and redirected with a timeout flag.
func RequireSession(m *session.Manager, mx *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch authenticate(c, m, mx) {
			case gateMissing:
				if r := c.Request(); r.Method == http.MethodGet || r.Method == http.MethodHead {
					m.RememberPath(c.Response(), r.URL.RequestURI())
				}
				return c.Redirect(http.StatusSeeOther, loginPath)
			case gateExpired:
				return c.Redirect(http.StatusSeeOther, loginTimeoutPath)
			}
			return next(c)
		}
	}
}

// RequireSessionJSON is the Auth Gate for the session-extension endpoint,
// which is called from script and cannot follow an HTML redirect.
func RequireSessionJSON(m *session.Manager, mx *metrics.Metrics) echo.MiddlewareFunc {
	timeout := int(m.Timeout().Seconds())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch authenticate(c, m, mx) {
			case gateMissing:
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Not authenticated", "timeout": timeout})
			case gateExpired:
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Session expired", "timeout": timeout})
			}
			return next(c)
		}
	}
}

// CurrentSession returns the session attached by the Auth Gate.
func CurrentSession(c echo.Context) (*session.Data, bool) {
	d, ok := c.Get(ctxSession).(*session.Data)
	return d, ok && d != nil
}

// CurrentIdentity returns the identity attached by the Auth Gate.
func CurrentIdentity(c echo.Context) (session.Identity, bool) {
	id, ok := c.Get(ctxIdentity).(session.Identity)
	return id, ok
}
