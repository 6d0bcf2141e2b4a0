package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/notesd/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Equal(t, "notesd", cfg.ServiceName)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.Sampling.Rate)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Metrics.ExportInterval.Duration())
	assert.Equal(t, 5*time.Second, cfg.Shutdown.Timeout.Duration())
	require.NoError(t, cfg.Validate())
}

func TestFromSettings(t *testing.T) {
	tests := []struct {
		name         string
		settings     config.TelemetryConfig
		wantInsecure bool
		wantErr      string
	}{
		{
			name:         "local collector is plaintext",
			settings:     config.TelemetryConfig{Enabled: true, Endpoint: "localhost:4317", SamplingRate: 1},
			wantInsecure: true,
		},
		{
			name:         "loopback ip with scheme",
			settings:     config.TelemetryConfig{Enabled: true, Endpoint: "http://127.0.0.1:4318", Protocol: "http/protobuf", SamplingRate: 0.5},
			wantInsecure: true,
		},
		{
			name:         "ipv6 loopback",
			settings:     config.TelemetryConfig{Enabled: true, Endpoint: "[::1]:4317", SamplingRate: 1},
			wantInsecure: true,
		},
		{
			name:         "remote collector uses tls",
			settings:     config.TelemetryConfig{Enabled: true, Endpoint: "otel.example.com:4317", SamplingRate: 1},
			wantInsecure: false,
		},
		{
			name:     "remote collector cannot be insecure",
			settings: config.TelemetryConfig{Enabled: true, Endpoint: "otel.example.com:4317", Insecure: true, SamplingRate: 1},
			wantErr:  "insecure connections to remote endpoints",
		},
		{
			name:     "unknown protocol",
			settings: config.TelemetryConfig{Enabled: true, Protocol: "thrift", SamplingRate: 1},
			wantErr:  "protocol must be grpc or http/protobuf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromSettings(tt.settings)
			err := cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInsecure, cfg.Insecure)
			assert.Equal(t, tt.settings.SamplingRate, cfg.Sampling.Rate)
		})
	}
}

func TestFromSettings_ServiceDefaults(t *testing.T) {
	cfg := FromSettings(config.Default().Telemetry)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "notesd", cfg.ServiceName)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Equal(t, 1.0, cfg.Sampling.Rate)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"disabled skips validation", func(c *Config) { *c = Config{} }, ""},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint is required"},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, "service_name is required"},
		{"missing service version", func(c *Config) { c.ServiceVersion = "" }, "service_version is required"},
		{"sampling rate too low", func(c *Config) { c.Sampling.Rate = -0.1 }, "sampling.rate must be between 0 and 1"},
		{"sampling rate too high", func(c *Config) { c.Sampling.Rate = 1.5 }, "sampling.rate must be between 0 and 1"},
		{"zero export interval", func(c *Config) { c.Metrics.ExportInterval = 0 }, "metrics.export_interval must be positive"},
		{"zero export interval with metrics off", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.ExportInterval = 0
		}, ""},
		{"zero shutdown timeout", func(c *Config) { c.Shutdown.Timeout = 0 }, "shutdown.timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
