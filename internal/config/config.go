// Package config loads notesd configuration from an optional YAML file
// and the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Storage backend names accepted by DB.Type.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendSupabase = "supabase"
)

// Config is the complete notesd configuration.
type Config struct {
	Server      ServerConfig     `koanf:"server"`
	Log         LogConfig        `koanf:"log"`
	DB          DBConfig         `koanf:"db"`
	Supabase    SupabaseConfig   `koanf:"supabase"`
	Deployment  DeploymentConfig `koanf:"deployment"`
	AI          AIConfig         `koanf:"ai"`
	Local       LocalConfig      `koanf:"local"`
	Ollama      SelfHostedConfig `koanf:"ollama"`
	HuggingFace SelfHostedConfig `koanf:"huggingface"`
	Groq        HostedConfig     `koanf:"groq"`
	OpenAI      HostedConfig     `koanf:"openai"`
	Telemetry   TelemetryConfig  `koanf:"otel"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DBConfig selects the storage backend and carries the connection
// parameters of the file and networked relational backends.
type DBConfig struct {
	Type     string `koanf:"type"`
	File     string `koanf:"file"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password Secret `koanf:"password"`
	Name     string `koanf:"name"`
}

// SupabaseConfig addresses the managed Postgres database. DBURL is a
// Postgres connection string; URL and AnonKey identify the project.
type SupabaseConfig struct {
	DBURL   Secret `koanf:"db_url"`
	URL     string `koanf:"url"`
	AnonKey Secret `koanf:"anon_key"`
}

// DeploymentConfig carries the platform markers that identify a stateless
// execution environment without a durable writable filesystem.
type DeploymentConfig struct {
	Vercel            Flag `koanf:"vercel"`
	Netlify           Flag `koanf:"netlify"`
	AWSLambdaFunction Flag `koanf:"aws_lambda_function_name"`
}

// Restricted reports whether any stateless platform marker is present.
func (d DeploymentConfig) Restricted() bool {
	return d.Vercel.Set() || d.Netlify.Set() || d.AWSLambdaFunction.Set()
}

// AIConfig holds the provider preference hint.
type AIConfig struct {
	Provider string `koanf:"provider"`
}

// LocalConfig configures the in-process inference pipeline.
type LocalConfig struct {
	Model    string `koanf:"model"`
	CacheDir string `koanf:"cache_dir"`
}

// SelfHostedConfig configures a model server on the local network.
type SelfHostedConfig struct {
	BaseURL string   `koanf:"base_url"`
	Model   string   `koanf:"model"`
	APIKey  Secret   `koanf:"api_key"`
	Timeout Duration `koanf:"timeout"`
}

// Configured reports whether both endpoint and model are usable.
func (c SelfHostedConfig) Configured() bool {
	return !IsPlaceholder(c.BaseURL) && !IsPlaceholder(c.Model)
}

// HostedConfig configures an OpenAI-compatible hosted API.
type HostedConfig struct {
	APIKey     Secret   `koanf:"api_key"`
	BaseURL    string   `koanf:"base_url"`
	Model      string   `koanf:"model"`
	Timeout    Duration `koanf:"timeout"`
	MaxRetries int      `koanf:"max_retries"`
}

// TelemetryConfig controls OpenTelemetry trace and metric export. It is
// read from the otel section, so OTEL_ENABLED and OTEL_ENDPOINT map here.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	Protocol        string   `koanf:"protocol"` // grpc or http/protobuf
	Insecure        bool     `koanf:"insecure"`
	ServiceName     string   `koanf:"service_name"`
	ServiceVersion  string   `koanf:"service_version"`
	SamplingRate    float64  `koanf:"sampling_rate"`
	ExportInterval  Duration `koanf:"export_interval"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Unknown db.type values are not an error; the store falls back to
	// memory and logs the override.
	dbType := strings.ToLower(c.DB.Type)
	if dbType == BackendSupabase && !c.Supabase.DBURL.IsSet() {
		errs = append(errs, errors.New("supabase.db_url is required when db.type is supabase"))
	}
	if c.DB.Port < 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("db.port must be between 0 and 65535, got %d", c.DB.Port))
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("otel.sampling_rate must be between 0 and 1, got %f", c.Telemetry.SamplingRate))
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http/protobuf":
	default:
		errs = append(errs, fmt.Errorf("otel.protocol must be grpc or http/protobuf, got %q", c.Telemetry.Protocol))
	}

	return errors.Join(errs...)
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	cfg.DB.Type = strings.ToLower(strings.TrimSpace(cfg.DB.Type))
	if cfg.DB.Type == "" {
		cfg.DB.Type = BackendSQLite
	}
	if cfg.DB.File == "" {
		cfg.DB.File = "./notes.db"
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 3306
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "root"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "notes_db"
	}

	if cfg.Local.Model == "" {
		cfg.Local.Model = "bge-small-en-v1.5"
	}

	if cfg.Groq.BaseURL == "" {
		cfg.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = "llama-3.1-8b-instant"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	for _, h := range []*HostedConfig{&cfg.Groq, &cfg.OpenAI} {
		if h.Timeout == 0 {
			h.Timeout = Duration(30 * time.Second)
		}
		if h.MaxRetries == 0 {
			h.MaxRetries = 2
		}
	}
	for _, s := range []*SelfHostedConfig{&cfg.Ollama, &cfg.HuggingFace} {
		if s.Timeout == 0 {
			s.Timeout = Duration(60 * time.Second)
		}
	}

	t := &cfg.Telemetry
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.Protocol == "" {
		t.Protocol = "grpc"
	}
	if t.ServiceName == "" {
		t.ServiceName = "notesd"
	}
	if t.ServiceVersion == "" {
		t.ServiceVersion = "0.1.0"
	}
	if t.SamplingRate == 0 {
		t.SamplingRate = 1.0
	}
	if t.ExportInterval == 0 {
		t.ExportInterval = Duration(15 * time.Second)
	}
	if t.ShutdownTimeout == 0 {
		t.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// Default returns a configuration with every default applied and no
// file or environment input.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}
