package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/config"
	"github.com/ekaya-inc/ekaya-features/pkg/crypto"
	"github.com/ekaya-inc/ekaya-features/pkg/engine"
)

// Engine runs materializations on an embedded DuckDB database.
type Engine struct {
	db          *sql.DB
	credentials *crypto.CredentialEncryptor
	logger      *zap.Logger
}

// New opens the DuckDB database described by cfg. An empty path runs in memory.
func New(ctx context.Context, cfg config.EngineConfig, logger *zap.Logger) (*Engine, error) {
	var credentials *crypto.CredentialEncryptor
	if cfg.CredentialsKey != "" {
		var err error
		credentials, err = crypto.NewCredentialEncryptor(cfg.CredentialsKey)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("duckdb", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DuckDB: %w", err)
	}

	logger.Debug("Opened DuckDB engine",
		zap.String("path", cfg.Path),
		zap.Int("threads", cfg.Threads),
		zap.String("memory_limit", cfg.MemoryLimit))

	return &Engine{db: db, credentials: credentials, logger: logger}, nil
}

// NewSession pins one DuckDB connection for the lifetime of the session.
func (e *Engine) NewSession(ctx context.Context) (engine.Session, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire DuckDB connection: %w", err)
	}

	id := uuid.New().String()
	return &session{
		id:          id,
		conn:        conn,
		credentials: e.credentials,
		logger:      e.logger.With(zap.String("session_id", id)),
	}, nil
}

// Close closes the database.
func (e *Engine) Close() error {
	return e.db.Close()
}

var _ engine.Engine = (*Engine)(nil)
