package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/model"
)

const userKey = "auth.user"

// SetUser stores the authenticated user on the request context.
func SetUser(c echo.Context, u model.User) { c.Set(userKey, u) }

// CurrentUser returns the user stored by Authenticate.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}

// userID is the rate-limit identity: the user id, or "anon".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok && u.ID != "" {
		return u.ID
	}
	return "anon"
}
