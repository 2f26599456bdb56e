package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	deps []Pinger
}

// NewHealthHandler creates a new HealthHandler. Readiness requires every
// dependency to answer Ping.
func NewHealthHandler(deps ...Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 if every dependency is reachable, 503 otherwise.
func (h *HealthHandler) Readyz(c echo.Context) error {
	for _, d := range h.deps {
		if err := d.Ping(c.Request().Context()); err != nil {
			return c.JSON(
				http.StatusServiceUnavailable,
				StatusResponse{Status: "unavailable"},
			)
		}
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
