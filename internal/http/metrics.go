package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/notesd/internal/http"

// unmatchedRoute labels requests no route matched, so arbitrary paths
// never become label values.
const unmatchedRoute = "unmatched"

// routeOperations names the note operation behind each route.
var routeOperations = map[string]string{
	http.MethodGet + " /health":                "health",
	http.MethodGet + " /api/notes":             "notes.list",
	http.MethodPost + " /api/notes":            "notes.create",
	http.MethodGet + " /api/notes/:id":         "notes.get",
	http.MethodPatch + " /api/notes/:id":       "notes.patch",
	http.MethodDelete + " /api/notes/:id":      "notes.delete",
	http.MethodPost + " /api/notes/:id/enrich": "notes.enrich",
	http.MethodGet + " /api/search":            "notes.search",
}

// HTTPMetrics records request counts, latency and response sizes per
// note operation.
type HTTPMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inflight metric.Int64UpDownCounter
}

// NewHTTPMetrics registers the instruments on the global meter provider.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &HTTPMetrics{
		meter:  otel.Meter(httpInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *HTTPMetrics) init() {
	var err error

	m.requests, err = m.meter.Int64Counter(
		"notesd.http.requests_total",
		metric.WithDescription("HTTP requests by note operation, route and status code"),
		metric.WithUnit("{request}"),
	)
	m.warn("notesd.http.requests_total", err)

	m.duration, err = m.meter.Float64Histogram(
		"notesd.http.request_duration_seconds",
		metric.WithDescription("HTTP request latency. Enrich requests include provider round trips."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	m.warn("notesd.http.request_duration_seconds", err)

	m.size, err = m.meter.Int64Histogram(
		"notesd.http.response_size_bytes",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(64, 256, 1024, 4096, 16384, 65536, 262144),
	)
	m.warn("notesd.http.response_size_bytes", err)

	m.inflight, err = m.meter.Int64UpDownCounter(
		"notesd.http.active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"),
	)
	m.warn("notesd.http.active_requests", err)
}

func (m *HTTPMetrics) warn(name string, err error) {
	if err != nil {
		m.logger.Warn("failed to create instrument", zap.String("instrument", name), zap.Error(err))
	}
}

// MetricsMiddleware records one observation per request. Errors returned
// by handlers are written by the error handler after this middleware
// returns, so their status comes from the same mapping.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			if m.inflight != nil {
				m.inflight.Add(ctx, 1)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = toHTTPError(err).Code
			}
			route := normalizePath(c.Path())
			attrs := metric.WithAttributes(
				attribute.String("operation", operationFor(c.Request().Method, route)),
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", route),
				attribute.String("status", strconv.Itoa(status)),
			)

			if m.requests != nil {
				m.requests.Add(ctx, 1, attrs)
			}
			if m.duration != nil {
				m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.size != nil {
				m.size.Record(ctx, c.Response().Size, attrs)
			}
			if m.inflight != nil {
				m.inflight.Add(ctx, -1)
			}
			return err
		}
	}
}

// normalizePath returns the registered route pattern (/api/notes/:id),
// never the concrete path, so note ids stay out of label values.
func normalizePath(route string) string {
	if route == "" || route == "/*" {
		return unmatchedRoute
	}
	return route
}

func operationFor(method, route string) string {
	if op, ok := routeOperations[method+" "+route]; ok {
		return op
	}
	return "other"
}
