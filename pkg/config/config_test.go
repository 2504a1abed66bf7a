package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
env: "test"
database:
  host: "db.example.com"
  port: 5432
  user: "registry"
  database: "features"
engine:
  threads: 2
logging:
  level: "debug"
`)

	os.Unsetenv("PGHOST")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ENGINE_MEMORY_LIMIT", "2GB")
	t.Setenv("PGPASSWORD", "secret")

	cfg, err := Load(path, "test-version")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 2, cfg.Engine.Threads)
	assert.Equal(t, "2GB", cfg.Engine.MemoryLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PGHOST", "PGPORT", "TRACING_EXPORTER", "LOG_FORMAT", "ENGINE_PATH"} {
		os.Unsetenv(key)
	}

	cfg, err := Load(writeConfig(t, "env: local\n"), "dev")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "", cfg.Engine.Path)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_PasswordNotReadFromYAML(t *testing.T) {
	os.Unsetenv("PGPASSWORD")

	cfg, err := Load(writeConfig(t, "database:\n  password: \"leaked\"\n"), "dev")
	require.NoError(t, err)
	assert.Empty(t, cfg.Database.Password)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown exporter", "tracing:\n  exporter: jaeger\n", "tracing.exporter"},
		{"sample rate", "tracing:\n  sample_rate: 1.5\n", "tracing.sample_rate"},
		{"log format", "logging:\n  format: xml\n", "logging.format"},
		{"negative threads", "engine:\n  threads: -1\n", "engine.threads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"TRACING_EXPORTER", "TRACING_SAMPLE_RATE", "LOG_FORMAT", "ENGINE_THREADS"} {
				os.Unsetenv(key)
			}
			_, err := Load(writeConfig(t, tt.yaml), "dev")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "dev")
	assert.Error(t, err)
}

func TestEngineConfig_DSN(t *testing.T) {
	assert.Equal(t, "", (&EngineConfig{}).DSN())
	assert.Equal(t, "/var/lib/features.duckdb", (&EngineConfig{Path: "/var/lib/features.duckdb"}).DSN())
	assert.Equal(t, "?memory_limit=1GB&threads=4", (&EngineConfig{Threads: 4, MemoryLimit: "1GB"}).DSN())
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "reg", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=reg sslmode=require", cfg.ConnectionString())
}
