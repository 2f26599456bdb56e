package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	mw "github.com/donaldgifford/deal-scorer/internal/api/middleware"
	"github.com/donaldgifford/deal-scorer/internal/metrics"
)

func newMetricsServer() *echo.Echo {
	e := echo.New()
	e.Use(mw.Metrics())
	e.GET("/api/v1/listings/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return c.NoContent(http.StatusNotFound)
		}
		return c.NoContent(http.StatusOK)
	})
	e.POST("/api/v1/rescore", func(echo.Context) error {
		return errors.New("store unavailable")
	})
	e.POST("/api/v1/market-prices/invalidate", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "reload in progress")
	})
	return e
}

func requestCount(method, route, class string) float64 {
	return ptestutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(method, route, class))
}

// Not parallel: request counters are process-global.
func TestMetrics_RouteAndStatusClass(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		target    string
		wantRoute string
		wantClass string
	}{
		{
			name:      "route template, not the raw path",
			method:    http.MethodGet,
			target:    "/api/v1/listings/3f9c2a",
			wantRoute: "/api/v1/listings/:id",
			wantClass: "2xx",
		},
		{
			name:      "handler written 404 keeps its route",
			method:    http.MethodGet,
			target:    "/api/v1/listings/missing",
			wantRoute: "/api/v1/listings/:id",
			wantClass: "4xx",
		},
		{
			name:      "plain error counts as 5xx",
			method:    http.MethodPost,
			target:    "/api/v1/rescore",
			wantRoute: "/api/v1/rescore",
			wantClass: "5xx",
		},
		{
			name:      "http error uses its code",
			method:    http.MethodPost,
			target:    "/api/v1/market-prices/invalidate",
			wantRoute: "/api/v1/market-prices/invalidate",
			wantClass: "4xx",
		},
		{
			name:      "unknown urls share one label",
			method:    http.MethodGet,
			target:    "/wp-login.php",
			wantRoute: "unmatched",
			wantClass: "4xx",
		},
	}

	e := newMetricsServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := requestCount(tt.method, tt.wantRoute, tt.wantClass)

			e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.target, http.NoBody))

			assert.InDelta(t, before+1, requestCount(tt.method, tt.wantRoute, tt.wantClass), 0.001)
			assert.Positive(t, ptestutil.CollectAndCount(metrics.HTTPRequestDuration))
		})
	}

	assert.Zero(t, requestCount(http.MethodGet, "/wp-login.php", "4xx"))
	assert.Zero(t, requestCount(http.MethodGet, "/api/v1/listings/3f9c2a", "2xx"))
}

// Not parallel: health gauges are process-global.
func TestMetrics_HealthGauges(t *testing.T) {
	ready := true

	e := echo.New()
	e.Use(mw.Metrics())
	e.GET("/readyz", func(c echo.Context) error {
		if ready {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	assert.InDelta(t, 1.0, ptestutil.ToFloat64(metrics.ReadyzUp), 0.001)
	assert.InDelta(t, 1.0, ptestutil.ToFloat64(metrics.HealthzUp), 0.001)

	ready = false
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	assert.InDelta(t, 0.0, ptestutil.ToFloat64(metrics.ReadyzUp), 0.001)

	assert.Zero(t, requestCount(http.MethodGet, "/readyz", "2xx"), "probes stay out of request metrics")
	assert.Zero(t, requestCount(http.MethodGet, "/readyz", "5xx"))
}
