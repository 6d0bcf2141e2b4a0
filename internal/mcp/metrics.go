package mcp

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/enrich"
	"github.com/fyrsmithlabs/notesd/internal/note"
)

const instrumentationName = "github.com/fyrsmithlabs/notesd/internal/mcp"

// Metrics records tool calls.
type Metrics struct {
	meter  metric.Meter
	logger *zap.Logger

	calls    metric.Int64Counter
	duration metric.Float64Histogram
	failures metric.Int64Counter
	inflight metric.Int64UpDownCounter
	returned metric.Int64Histogram
}

// NewMetrics registers the instruments on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.calls, err = m.meter.Int64Counter(
		"notesd.mcp.tool.invocations_total",
		metric.WithDescription("MCP tool calls by tool and outcome"),
		metric.WithUnit("{invocation}"),
	)
	m.warn("notesd.mcp.tool.invocations_total", err)

	m.duration, err = m.meter.Float64Histogram(
		"notesd.mcp.tool.duration_seconds",
		metric.WithDescription("MCP tool call latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	m.warn("notesd.mcp.tool.duration_seconds", err)

	m.failures, err = m.meter.Int64Counter(
		"notesd.mcp.tool.errors_total",
		metric.WithDescription("Failed MCP tool calls by tool and reason"),
		metric.WithUnit("{error}"),
	)
	m.warn("notesd.mcp.tool.errors_total", err)

	m.inflight, err = m.meter.Int64UpDownCounter(
		"notesd.mcp.tool.active_requests",
		metric.WithDescription("MCP tool calls in flight"),
		metric.WithUnit("{request}"),
	)
	m.warn("notesd.mcp.tool.active_requests", err)

	m.returned, err = m.meter.Int64Histogram(
		"notesd.mcp.tool.notes_returned",
		metric.WithDescription("Notes returned by list and search tools"),
		metric.WithUnit("{note}"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 100, 500),
	)
	m.warn("notesd.mcp.tool.notes_returned", err)
}

func (m *Metrics) warn(name string, err error) {
	if err != nil {
		m.logger.Warn("failed to create instrument", zap.String("instrument", name), zap.Error(err))
	}
}

// Start marks a tool call in flight. The returned func ends it and must
// be called exactly once with the call's error.
func (m *Metrics) Start(ctx context.Context, tool string) func(error) {
	start := time.Now()
	toolAttr := attribute.String("tool", tool)
	if m.inflight != nil {
		m.inflight.Add(ctx, 1, metric.WithAttributes(toolAttr))
	}

	return func(err error) {
		if m.inflight != nil {
			m.inflight.Add(ctx, -1, metric.WithAttributes(toolAttr))
		}

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		attrs := metric.WithAttributes(toolAttr, attribute.String("outcome", outcome))
		if m.calls != nil {
			m.calls.Add(ctx, 1, attrs)
		}
		if m.duration != nil {
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
		if err != nil && m.failures != nil {
			m.failures.Add(ctx, 1, metric.WithAttributes(toolAttr, attribute.String("reason", categorizeError(err))))
		}
	}
}

// RecordReturned records how many notes a list or search call returned.
func (m *Metrics) RecordReturned(ctx context.Context, tool string, n int) {
	if m.returned != nil {
		m.returned.Record(ctx, int64(n), metric.WithAttributes(attribute.String("tool", tool)))
	}
}

// categorizeError maps an error onto a low-cardinality reason label.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, note.ErrValidation):
		return "validation_error"
	case errors.Is(err, note.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return "timeout"
	case errors.Is(err, note.ErrBackendUnavailable):
		return "storage_error"
	case errors.Is(err, enrich.ErrExhaustedFallback):
		return "enrichment_error"
	default:
		return "internal_error"
	}
}
