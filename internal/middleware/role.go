package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/model"
)

// RequireRole lets the request through only when the authenticated user
// holds one of roles. It must run after Authenticate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return apperrors.Unauthenticated("authentication required")
			}
			for _, r := range roles {
				if u.Role == r {
					return next(c)
				}
			}
			return apperrors.Forbidden("role " + u.Role.String() + " may not perform this action")
		}
	}
}
