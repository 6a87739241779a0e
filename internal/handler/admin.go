package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/service"
)

type AdminHandler struct {
	Admin *service.AdminService
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	p, err := page(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Admin.ListUsers(ctx, u, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

func (h *AdminHandler) DeactivateUser(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Admin.DeactivateUser(ctx, u, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Admin.DeleteUser(ctx, u, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
