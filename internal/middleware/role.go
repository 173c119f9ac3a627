package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/kasirku/internal/access" // access holds the permission table
)

// DeniedMessage is the entire body of a 403 response.
const DeniedMessage = "Access denied: insufficient permissions"

// RequireAccess returns a middleware that lets the request through only
// when the authenticated role is allowed to use resource according to
// the policy.  It must run after RequireSession.  A missing or
// mismatching role ends the request with 403 and nothing else.
func RequireAccess(policy access.Policy, resource access.Resource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok || !policy.Allows(id.Role, resource) {
				return c.String(http.StatusForbidden, DeniedMessage)
			}
			return next(c)
		}
	}
}
