package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temp dir and returns the allowed config dir.
func setupTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "notesd")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	setupTestHome(t)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, BackendSQLite, cfg.DB.Type)
	assert.Equal(t, "./notes.db", cfg.DB.File)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 3306, cfg.DB.Port)
	assert.Equal(t, "root", cfg.DB.User)
	assert.Equal(t, "notes_db", cfg.DB.Name)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.Model)
	assert.False(t, cfg.Deployment.Restricted())
}

func TestLoadWithFile_YAML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, `server:
  http_port: 9191
  shutdown_timeout: 3s
db:
  type: memory
ollama:
  base_url: http://localhost:11434
  model: llama3
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, BackendMemory, cfg.DB.Type)
	assert.True(t, cfg.Ollama.Configured())
}

func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "server:\n  http_port: 9191\ndb:\n  type: sqlite\n")

	t.Setenv("SERVER_HTTP_PORT", "7777")
	t.Setenv("DB_TYPE", "MySQL")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("HUGGINGFACE_BASE_URL", "http://tgi:8080")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, BackendMySQL, cfg.DB.Type)
	assert.Equal(t, "hunter2", cfg.DB.Password.Value())
	assert.True(t, cfg.OpenAI.APIKey.IsSet())
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "http://tgi:8080", cfg.HuggingFace.BaseURL)
	assert.False(t, cfg.HuggingFace.Configured(), "model is still missing")
}

func TestLoadWithFile_DeploymentMarkers(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"vercel", map[string]string{"VERCEL": "1", "VERCEL_URL": "x.vercel.app"}, true},
		{"netlify", map[string]string{"NETLIFY": "true"}, true},
		{"lambda", map[string]string{"AWS_LAMBDA_FUNCTION_NAME": "notes-fn"}, true},
		{"explicit false", map[string]string{"VERCEL": "0"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestHome(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadWithFile("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Deployment.Restricted())
		})
	}
}

func TestLoadWithFile_Validation(t *testing.T) {
	t.Run("unknown backend loads", func(t *testing.T) {
		setupTestHome(t)
		t.Setenv("DB_TYPE", "Postgres")
		cfg, err := LoadWithFile("")
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.DB.Type)
	})

	t.Run("supabase without url", func(t *testing.T) {
		setupTestHome(t)
		t.Setenv("DB_TYPE", "supabase")
		_, err := LoadWithFile("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "supabase.db_url")
	})

	t.Run("port out of range", func(t *testing.T) {
		setupTestHome(t)
		t.Setenv("SERVER_HTTP_PORT", "70000")
		_, err := LoadWithFile("")
		require.Error(t, err)
	})
}

func TestLoadWithFile_PathOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  type: memory\n"), 0o600))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path validation failed")
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	dir := setupTestHome(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  type: memory\n"), 0o644))
	require.NoError(t, os.Chmod(path, 0o644))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"DB_TYPE":                  "db.type",
		"OPENAI_API_KEY":           "openai.api_key",
		"SUPABASE_DB_URL":          "supabase.db_url",
		"SERVER_HTTP_PORT":         "server.http_port",
		"VERCEL":                   "deployment.vercel",
		"AWS_LAMBDA_FUNCTION_NAME": "deployment.aws_lambda_function_name",
		"PATH":                     "",
		"_X":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestLoadWithFile_Telemetry(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setupTestHome(t)
		cfg, err := LoadWithFile("")
		require.NoError(t, err)

		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
		assert.Equal(t, "grpc", cfg.Telemetry.Protocol)
		assert.Equal(t, "notesd", cfg.Telemetry.ServiceName)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRate)
		assert.Equal(t, 15*time.Second, cfg.Telemetry.ExportInterval.Duration())
	})

	t.Run("environment", func(t *testing.T) {
		setupTestHome(t)
		t.Setenv("OTEL_ENABLED", "true")
		t.Setenv("OTEL_ENDPOINT", "collector.internal:4317")
		t.Setenv("OTEL_SAMPLING_RATE", "0.25")
		t.Setenv("OTEL_EXPORT_INTERVAL", "30s")

		cfg, err := LoadWithFile("")
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "collector.internal:4317", cfg.Telemetry.Endpoint)
		assert.Equal(t, 0.25, cfg.Telemetry.SamplingRate)
		assert.Equal(t, 30*time.Second, cfg.Telemetry.ExportInterval.Duration())
	})

	t.Run("invalid protocol", func(t *testing.T) {
		setupTestHome(t)
		t.Setenv("OTEL_PROTOCOL", "thrift")
		_, err := LoadWithFile("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "otel.protocol")
	})
}
