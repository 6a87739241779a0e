package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/apperrors"
	"github.com/iliyamo/rental-booking/internal/repository"
	"github.com/iliyamo/rental-booking/internal/service"
)

type ListingHandler struct {
	Listings *service.ListingService
}

// List filters by location (substring), max_price_cents and landlord_id.
func (h *ListingHandler) List(c echo.Context) error {
	p, err := page(c)
	if err != nil {
		return err
	}
	f := repository.ListingFilter{
		Location:   c.QueryParam("location"),
		LandlordID: c.QueryParam("landlord_id"),
		Page:       p,
	}
	if raw := c.QueryParam("max_price_cents"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.InvalidInput("max_price_cents", "must be an integer")
		}
		f.MaxPriceCents = &v
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Listings.List(ctx, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": p.Limit, "offset": p.Offset})
}

func (h *ListingHandler) Get(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	l, err := h.Listings.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) Create(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req service.ListingInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	l, err := h.Listings.Create(ctx, u, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *ListingHandler) Update(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req service.ListingPatch
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	l, err := h.Listings.Update(ctx, u, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

// Delete serves both the landlord route and the admin route.
func (h *ListingHandler) Delete(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Listings.Delete(ctx, u, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
