// Package telemetry wires OpenTelemetry tracing and metrics for notesd.
//
// Spans and metrics are exported over OTLP (gRPC or HTTP/protobuf) to a
// collector. Export is off by default; enable it with the otel section of
// the config file or OTEL_ENABLED=true.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Exporter failures never stop the service. The instance reports itself
// degraded through Health and the global no-op providers take over.
//
// Tests use NewTestTelemetry, which records spans and metrics in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "note.create")
//	span.End()
//	tt.AssertSpanExists(t, "note.create")
package telemetry
