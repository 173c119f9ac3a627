package middleware

// identity.go holds helpers shared across middleware files for naming the
// caller in log lines and rate-limit keys.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userKey returns the authenticated user's id as a string, or "anon"
// when the request has not passed the Auth Gate.
func userKey(c echo.Context) string {
	if id, ok := CurrentIdentity(c); ok && id.UserID != 0 {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
