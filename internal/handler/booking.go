package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/service"
)

type BookingHandler struct {
	Bookings *service.BookingService
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

// Create answers 201 with the pending booking.
func (h *BookingHandler) Create(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req service.CreateBookingInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Bookings.CreateBooking(ctx, u, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

// SetStatus takes {"status": "confirmed" | "cancelled"}.
func (h *BookingHandler) SetStatus(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	var req statusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Bookings.SetBookingStatus(ctx, u, c.Param("id"), model.BookingStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Get(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Bookings.GetBooking(ctx, u, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// Mine lists the tenant's bookings, or the bookings on a landlord's
// listings.
func (h *BookingHandler) Mine(c echo.Context) error {
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

	items, err := h.Bookings.ListMyBookings(ctx, u, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// All is the admin view of every booking.
func (h *BookingHandler) All(c echo.Context) error {
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

	items, err := h.Bookings.ListAllBookings(ctx, u, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
