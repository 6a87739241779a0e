package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/middleware"
	"github.com/iliyamo/rental-booking/internal/model"
)

const listingsPath = "/v1/listings"

// RegisterListings registers the public browse routes, which are rate
// limited and cached, and the landlord write routes.
func RegisterListings(e *echo.Echo, d Deps) {
	h := d.Listings
	public := e.Group(listingsPath,
		middleware.RateLimit(d.RateLimit, d.Redis, d.Logger),
		middleware.ResponseCache(d.Cache, d.Redis, d.Logger),
	)
	public.GET("", h.List)
	public.GET("/:id", h.Get)

	// Route-level guards: a second group on the same prefix would replace
	// the public group's not-found fallback.
	landlord := []echo.MiddlewareFunc{
		middleware.Authenticate(d.Gate),
		middleware.RequireRole(model.RoleLandlord),
		middleware.EvictCache(d.Cache, d.Redis, d.Logger, listingsPath),
	}
	e.POST(listingsPath, h.Create, landlord...)
	e.PATCH(listingsPath+"/:id", h.Update, landlord...)
	e.DELETE(listingsPath+"/:id", h.Delete, landlord...)
}
