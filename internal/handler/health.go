package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger adapts a go-redis client to Pinger.
type RedisPinger struct{ Client *redis.Client }

func (p RedisPinger) PingContext(ctx context.Context) error { return p.Client.Ping(ctx).Err() }

// Unreachable stands in for a dependency that was configured but could not
// be connected at startup. Every check fails with Err.
type Unreachable struct{ Err error }

func (u Unreachable) PingContext(context.Context) error { return u.Err }

// HealthHandler reports liveness plus the state of the database and Redis.
// A nil Redis pinger means Redis is not part of this deployment and reports
// "disabled" without affecting the overall status. A Redis that is down
// makes the service "degraded": no sessions, rate limiting or caching.
type HealthHandler struct {
	DB    Pinger
	Redis Pinger
}

type healthResp struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := healthResp{Status: "ok", Database: check(ctx, h.DB), Redis: check(ctx, h.Redis)}
	status := http.StatusOK
	if resp.Database != "up" {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else if resp.Redis == "down" {
		resp.Status = "degraded"
	}
	return c.JSON(status, resp)
}

func check(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.PingContext(ctx); err != nil {
		return "down"
	}
	return "up"
}
