// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/rental-booking/internal/access"
	"github.com/iliyamo/rental-booking/internal/config"
	"github.com/iliyamo/rental-booking/internal/handler"
	"github.com/iliyamo/rental-booking/internal/metrics"
	"github.com/iliyamo/rental-booking/internal/middleware"
)

// Deps is everything the HTTP surface needs. Redis may be nil; rate
// limiting and caching are then off.
type Deps struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Gate     *access.Gate
	Redis    *redis.Client

	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig

	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Listings *handler.ListingHandler
	Bookings *handler.BookingHandler
	Admin    *handler.AdminHandler
	// OAuth registers the provider routes.
	OAuth bool
}

// New builds the echo instance with the global middleware chain and every
// route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Logger)

	e.Use(
		echomw.Recover(),
		echomw.RequestID(),
		echomw.BodyLimit("1M"),
		middleware.RequestLogger(d.Logger),
		middleware.Metrics(d.Metrics),
	)

	RegisterRoutes(e, d.Health, d.Gatherer)
	RegisterAuth(e, d)
	RegisterListings(e, d)
	RegisterBookings(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, g prometheus.Gatherer) {
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}
