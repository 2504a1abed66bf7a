package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ekaya-features.
// Configuration can come from a YAML file (config.yaml by default) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Registry store (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Query engine used for materialization
	Engine EngineConfig `yaml:"engine"`

	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

// DatabaseConfig holds PostgreSQL configuration for the feature registry.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"feature_registry"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MaxIdleConns   int32  `yaml:"max_idle_conns" env:"PGMAX_IDLE_CONNS" env-default:"2"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// EngineConfig holds DuckDB settings.
type EngineConfig struct {
	// Path of the DuckDB database file. Empty runs in memory.
	Path string `yaml:"path" env:"ENGINE_PATH" env-default:""`
	// Threads limits DuckDB worker threads. Zero leaves DuckDB's default.
	Threads int `yaml:"threads" env:"ENGINE_THREADS" env-default:"0"`
	// MemoryLimit is passed through as DuckDB's memory_limit (e.g. "4GB").
	MemoryLimit string `yaml:"memory_limit" env:"ENGINE_MEMORY_LIMIT" env-default:""`
	// ExtensionDirectory overrides where DuckDB installs extensions (postgres scanner).
	ExtensionDirectory string `yaml:"extension_directory" env:"ENGINE_EXTENSION_DIRECTORY" env-default:""`
	// CredentialsKey decrypts "*_encrypted" source config values.
	CredentialsKey string `yaml:"-" env:"CREDENTIALS_KEY"` // Secret - not in YAML
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	Exporter     string  `yaml:"exporter" env:"TRACING_EXPORTER" env-default:"none"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4318"`
	ServiceName  string  `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"ekaya-features"`
	SampleRate   float64 `yaml:"sample_rate" env:"TRACING_SAMPLE_RATE" env-default:"1.0"`
}

// LoggingConfig holds zap logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"` // json, console
}

// Load reads configuration from the YAML file at path with environment variable overrides.
// A missing file is not an error when path is empty; defaults and environment apply.
// The version parameter is injected at build time and set on the returned Config.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Tracing.Exporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be none, stdout or otlp, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1, got %v", c.Tracing.SampleRate)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Engine.Threads < 0 {
		return fmt.Errorf("engine.threads must not be negative")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DSN returns the DuckDB data source name with configured settings as query parameters.
func (c *EngineConfig) DSN() string {
	params := url.Values{}
	if c.Threads > 0 {
		params.Set("threads", fmt.Sprintf("%d", c.Threads))
	}
	if c.MemoryLimit != "" {
		params.Set("memory_limit", c.MemoryLimit)
	}
	if c.ExtensionDirectory != "" {
		params.Set("extension_directory", c.ExtensionDirectory)
	}

	dsn := strings.TrimSpace(c.Path)
	if encoded := params.Encode(); encoded != "" {
		dsn += "?" + encoded
	}
	return dsn
}
