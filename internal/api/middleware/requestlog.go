package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

const requestIDHeader = "X-Request-ID"

// probePaths are logged on their first success and on every failure only;
// kubelet hits them every few seconds.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header and echo context. 5xx responses log at warn level.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		probeOK = make(map[string]bool)
	)

	// quiet reports whether a probe response repeats the last logged success.
	quiet := func(path string, status int) bool {
		if _, ok := probePaths[path]; !ok {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		success := status >= 200 && status < 300
		if !success {
			probeOK[path] = false
			return false
		}
		if probeOK[path] {
			return true
		}
		probeOK[path] = true
		return false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			if quiet(path, status) {
				return err
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}
			if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
				attrs = append(attrs, "trace_id", sc.TraceID().String())
			}

			if status >= 500 {
				log.Warn("request", attrs...)
			} else {
				log.Info("request", attrs...)
			}

			return err
		}
	}
}
