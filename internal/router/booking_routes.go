package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/middleware"
	"github.com/iliyamo/rental-booking/internal/model"
)

// RegisterBookings registers the booking engine routes. All of them need a
// bearer token; the engine itself enforces role and ownership, the route
// guards only reject wrong roles early.
func RegisterBookings(e *echo.Echo, d Deps) {
	h := d.Bookings
	auth := middleware.Authenticate(d.Gate)
	e.POST("/v1/bookings", h.Create, auth, middleware.RequireRole(model.RoleTenant))
	e.PATCH("/v1/bookings/:id/status", h.SetStatus, auth, middleware.RequireRole(model.RoleLandlord))
	e.GET("/v1/bookings/:id", h.Get, auth)
	e.GET("/v1/my-bookings", h.Mine, auth)
}
