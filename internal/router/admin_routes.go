package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/middleware"
	"github.com/iliyamo/rental-booking/internal/model"
)

// RegisterAdmin registers the oversight routes under /v1/admin.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/v1/admin",
		middleware.Authenticate(d.Gate),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/users", d.Admin.ListUsers)
	g.PATCH("/users/:id/deactivate", d.Admin.DeactivateUser)
	g.DELETE("/users/:id", d.Admin.DeleteUser)
	g.GET("/bookings", d.Bookings.All)
	g.DELETE("/listings/:id", d.Listings.Delete, middleware.EvictCache(d.Cache, d.Redis, d.Logger, listingsPath))
}
