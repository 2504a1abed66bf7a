package mssql

import (
	"fmt"
	"strconv"
	"strings"
)

// Config contains SQL Server connection options read from a source's config map.
type Config struct {
	Host     string
	Port     int
	Database string

	// AuthMethod determines which authentication to use
	// Options: "sql", "service_principal"
	AuthMethod string

	// SQL Authentication fields
	Username string
	Password string

	// Service Principal (Azure AD) fields
	TenantID     string
	ClientID     string
	ClientSecret string

	// Connection options
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// DefaultSchema is used when the table name carries no schema.
func DefaultSchema() string {
	return "dbo"
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "strict":
		return true
	}
	return false
}

// FromMap creates a Config from a source config map and auto-detects the auth method.
func FromMap(m map[string]string) (*Config, error) {
	cfg := &Config{
		Port:              DefaultPort(),
		Encrypt:           true,
		ConnectionTimeout: DefaultConnectionTimeout(),
	}

	cfg.Host = m["host"]
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}

	if port := m["port"]; port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid port: %s", port)
		}
		cfg.Port = p
	}

	if database := m["database"]; database != "" {
		cfg.Database = database
	} else if name := m["name"]; name != "" {
		cfg.Database = name
	} else {
		return nil, fmt.Errorf("database is required")
	}

	if encrypt, ok := m["encrypt"]; ok {
		cfg.Encrypt = parseBool(encrypt)
	}
	cfg.TrustServerCertificate = parseBool(m["trust_server_certificate"])

	if timeout := m["connection_timeout"]; timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid connection_timeout: %s", timeout)
		}
		cfg.ConnectionTimeout = t
	}

	// Priority when not explicit: client_id > username/user
	switch {
	case m["auth_method"] != "":
		cfg.AuthMethod = m["auth_method"]
	case m["client_id"] != "":
		cfg.AuthMethod = "service_principal"
	case m["username"] != "" || m["user"] != "":
		cfg.AuthMethod = "sql"
	default:
		return nil, fmt.Errorf("could not auto-detect auth method; no credentials provided")
	}

	switch cfg.AuthMethod {
	case "sql":
		cfg.Username = m["username"]
		if cfg.Username == "" {
			cfg.Username = m["user"]
		}
		cfg.Password = m["password"]
	case "service_principal":
		cfg.TenantID = m["tenant_id"]
		cfg.ClientID = m["client_id"]
		cfg.ClientSecret = m["client_secret"]
	default:
		return nil, fmt.Errorf("invalid auth method: %s (must be sql or service_principal)", cfg.AuthMethod)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the config has all required fields for the selected auth method.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.AuthMethod {
	case "sql":
		if c.Username == "" {
			return fmt.Errorf("username is required for SQL authentication")
		}
	case "service_principal":
		if c.TenantID == "" {
			return fmt.Errorf("tenant_id is required for service principal")
		}
		if c.ClientID == "" {
			return fmt.Errorf("client_id is required for service principal")
		}
		if c.ClientSecret == "" {
			return fmt.Errorf("client_secret is required for service principal")
		}
	default:
		return fmt.Errorf("invalid auth method: %s", c.AuthMethod)
	}

	return nil
}
