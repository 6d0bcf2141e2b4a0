package logging

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/notesd/internal/config"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad format", func(c *Config) { c.Format = "xml" }, true},
		{"no outputs", func(c *Config) { c.Output = OutputConfig{} }, true},
		{"stdout and stderr", func(c *Config) { c.Output = OutputConfig{Stdout: true, Stderr: true} }, true},
		{"stderr only", func(c *Config) { c.Output = OutputConfig{Stderr: true} }, false},
		{"zero tick", func(c *Config) { c.Sampling.Tick = 0 }, true},
		{"bad pattern", func(c *Config) { c.Redaction.Patterns = []string{"("} }, true},
		{"empty field value", func(c *Config) { c.Fields = map[string]string{"k": ""} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings("debug", "console")
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	cfg = FromSettings("TRACE", "")
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	cfg = FromSettings("nonsense", "json")
	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, logger.Underlying())
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))

	bad := NewDefaultConfig()
	bad.Format = "xml"
	_, err = NewLogger(bad, nil)
	assert.Error(t, err)
}

func TestContextFields(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithNoteID(ctx, "0b5d6f1e-8a8a-4c1e-9a43-2f0f6c1f7a10")

	tl := NewTestLogger()
	tl.Info(ctx, "note enriched", zap.String("provider", "RuleBased"))

	tl.AssertLogged(t, zapcore.InfoLevel, "note enriched")
	tl.AssertField(t, "note enriched", "request.id", "req-1")
	tl.AssertField(t, "note enriched", "note.id", "0b5d6f1e-8a8a-4c1e-9a43-2f0f6c1f7a10")
	tl.AssertField(t, "note enriched", "provider", "RuleBased")
}

func TestWithRequestID_DropsUntrustedValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(WithRequestID(ctx, "")))
	assert.Empty(t, RequestIDFromContext(WithRequestID(ctx, "bad id\n")))
	assert.Empty(t, NoteIDFromContext(WithNoteID(ctx, string(bytes.Repeat([]byte("a"), 200)))))
	assert.Equal(t, "ok_1", RequestIDFromContext(WithRequestID(ctx, "ok_1")))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Warn(ctx, "from context")
	tl.AssertLogged(t, zapcore.WarnLevel, "from context")
}

func TestTraceLevel(t *testing.T) {
	tl := NewTestLogger()
	tl.Trace(context.Background(), "raw response")
	tl.AssertLogged(t, TraceLevel, "raw response")
}

func newBufferedLogger(buf *bytes.Buffer, cfg RedactionConfig) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	enc, err := NewRedactingEncoder(zapcore.NewJSONEncoder(encCfg), cfg)
	if err != nil {
		panic(err)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(buf), zapcore.DebugLevel))
}

func TestRedactingEncoder(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedLogger(&buf, NewDefaultConfig().Redaction)

	logger.Info("calling provider",
		zap.String("api_key", "sk-abcdefghijklmnopqrstuvwxyz"),
		zap.String("header", "Bearer abc.def.ghi"),
		zap.String("provider", "OpenAI"),
	)
	logger.With(zap.String("password", "hunter2")).Info("with field")

	out := buf.String()
	assert.NotContains(t, out, "sk-abcdefghijklmnopqrstuvwxyz")
	assert.NotContains(t, out, "abc.def.ghi")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "OpenAI")
	assert.Contains(t, out, "[REDACTED]")
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedLogger(&buf, RedactionConfig{})
	logger.Info("x", zap.String("api_key", "visible"))
	assert.Contains(t, buf.String(), "visible")
}

func TestSecretField(t *testing.T) {
	f := Secret("openai.api_key", "sk-123")
	assert.Equal(t, "[REDACTED:6]", f.String)
}

func TestSampledCore_NeverSamplesErrors(t *testing.T) {
	var buf bytes.Buffer
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	base := zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.DebugLevel)
	core := newSampledCore(base, SamplingConfig{Enabled: true, Tick: config.Duration(time.Second), Initial: 1, Thereafter: 0})
	logger := zap.New(core)

	for i := 0; i < 5; i++ {
		logger.Info("repeated")
		logger.Error("failure")
	}
	out := buf.String()
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte(`"repeated"`)))
	assert.Equal(t, 5, bytes.Count([]byte(out), []byte(`"failure"`)))
}
