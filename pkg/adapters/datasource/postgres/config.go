package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/ekaya-inc/ekaya-features/pkg/config"
)

// Config contains PostgreSQL connection options read from a source's config map.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-ca", "verify-full"
	Schema   string
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "require"
}

// DefaultSchema is used when neither the config nor the table name names a schema.
func DefaultSchema() string {
	return "public"
}

// FromMap creates a Config from a source config map.
func FromMap(m map[string]string) (*Config, error) {
	cfg := &Config{
		Port:    DefaultPort(),
		SSLMode: DefaultSSLMode(),
	}

	cfg.Host = m["host"]
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}

	if port := m["port"]; port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid port: %s", port)
		}
		cfg.Port = p
	}

	cfg.User = m["user"]
	if cfg.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	cfg.Password = m["password"]

	if database := m["database"]; database != "" {
		cfg.Database = database
	} else if name := m["dbname"]; name != "" {
		cfg.Database = name
	} else {
		return nil, fmt.Errorf("database is required")
	}

	if sslMode := m["ssl_mode"]; sslMode != "" {
		cfg.SSLMode = sslMode
	}
	cfg.Schema = m["schema"]

	return cfg, nil
}

// ConnectionString builds a PostgreSQL URL with every user-provided field escaped.
// When running in Docker, localhost resolves to host.docker.internal.
func (c *Config) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(config.ResolveHostForDocker(c.Host), strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}
