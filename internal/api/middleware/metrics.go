// Package middleware provides Echo middleware for the deal-scorer API.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/deal-scorer/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route, so scanners
// probing random URLs cannot grow the label set.
const unmatchedRoute = "unmatched"

// metricsSkipPaths are the probe and scrape routes excluded from tracing.
var metricsSkipPaths = map[string]struct{}{
	"/metrics": {},
	"/healthz": {},
	"/readyz":  {},
}

// Metrics returns Echo middleware that records request counts and latency
// by method, route template and status class (2xx, 4xx, 5xx). The health
// endpoints only drive the ds_healthz_up and ds_readyz_up gauges, and
// /metrics is not recorded at all.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := responseStatus(c, err)
			route := routeLabel(c, err)

			switch route {
			case "/metrics":
				return err
			case "/healthz":
				metrics.HealthzUp.Set(up(status))
				return err
			case "/readyz":
				metrics.ReadyzUp.Set(up(status))
				return err
			}

			class := statusClass(status)
			method := c.Request().Method
			metrics.HTTPRequestDuration.WithLabelValues(method, route, class).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(method, route, class).Inc()

			return err
		}
	}
}

// responseStatus is the status the client will see. When a handler returns
// an error the response has not been written yet and the error handler will
// pick the code.
func responseStatus(c echo.Context, err error) int {
	if c.Response().Committed || err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func routeLabel(c echo.Context, err error) string {
	route := c.Path()
	if route == "" || route == "/*" ||
		errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
		return unmatchedRoute
	}
	return route
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

func up(status int) float64 {
	if status >= 200 && status < 300 {
		return 1
	}
	return 0
}
