package middleware

// identity.go defines helpers shared across middleware files and handlers
// for reading the authenticated user back out of the echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/model"
)

// CurrentUser returns the user stored by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ContextUserKey).(model.User)
	return u, ok
}

// userID returns the authenticated user's id as a string, or "anon" when the
// request is not authenticated.
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok && u.ID != 0 {
		return strconv.FormatUint(u.ID, 10)
	}
	return "anon"
}
