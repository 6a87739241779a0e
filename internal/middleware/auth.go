package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/access"
	"github.com/iliyamo/rental-booking/internal/apperrors"
)

// Authenticate resolves the bearer token through the gate and stores the
// live user record in the context. Failures are returned as errors so the
// shared error handler renders them.
func Authenticate(gate *access.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperrors.Unauthenticated("missing bearer token")
			}
			u, err := gate.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return err
			}
			SetUser(c, u)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
