package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/middleware"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/repository"
)

// page reads limit and offset. Out-of-range values are clamped by the
// repository; only non-numbers are rejected.
func page(c echo.Context) (repository.Page, error) {
	var p repository.Page
	var err error
	if p.Limit, err = intParam(c, "limit"); err != nil {
		return p, err
	}
	if p.Offset, err = intParam(c, "offset"); err != nil {
		return p, err
	}
	return p, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(name, "must be an integer")
	}
	return n, nil
}

// caller returns the user placed on the context by middleware.Authenticate.
func caller(c echo.Context) (model.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return model.User{}, apperrors.Unauthenticated("authentication required")
	}
	return u, nil
}
