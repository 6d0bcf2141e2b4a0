// Package logging provides structured logging for notesd.
//
// The package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Stdout or stderr output, optionally teed into OpenTelemetry logs
//   - Context field injection (trace_id, request.id, note.id)
//   - Secret redaction at the encoder
//   - Level-aware sampling (errors never sampled)
//
// Create a logger from config:
//
//	cfg := logging.FromSettings("info", "json")
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithNoteID(ctx, id)
//	logger.Info(ctx, "note enriched", zap.String("provider", name))
//
// Storage and enrichment components take a plain *zap.Logger; hand them
// Underlying(). When serving MCP over stdio, stdout carries the protocol,
// so logs must go to stderr (Output.Stderr).
//
// Use TestLogger in tests:
//
//	tl := logging.NewTestLogger()
//	svc := enrich.NewService(providers, tl.Underlying())
//	tl.AssertLogged(t, zapcore.WarnLevel, "falling back")
package logging
