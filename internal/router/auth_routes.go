package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/middleware"
)

// RegisterAuth registers sign-in routes under /v1/auth and the caller's
// profile at /v1/me. Unauthenticated auth routes share the rate limiter.
func RegisterAuth(e *echo.Echo, d Deps) {
	a := d.Auth
	g := e.Group("/v1/auth", middleware.RateLimit(d.RateLimit, d.Redis, d.Logger))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.Authenticate(d.Gate))

	if d.OAuth {
		g.GET("/oauth/:provider/start", a.OAuthStart)
		g.GET("/oauth/:provider/callback", a.OAuthCallback)
		g.POST("/session/token", a.SessionToken)
		g.DELETE("/session", a.EndSession)
	}

	e.GET("/v1/me", a.Me, middleware.Authenticate(d.Gate))
}
