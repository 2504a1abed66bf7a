package datasource

import (
	"context"
	"database/sql"

	"github.com/ekaya-inc/ekaya-features/pkg/models"
)

// Conn is the query engine connection a loader writes into. *sql.Conn satisfies it.
// Objects a loader creates are visible only on this connection.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// LoadRequest describes one source load.
type LoadRequest struct {
	Source *models.Source
	// Relation is the name under which the loaded rows must be queryable.
	Relation string
	// SessionID is unique per engine session; loaders use it to name attached
	// databases and staging objects.
	SessionID string
}

// Cleanup drops whatever a loader created. It runs before the engine
// connection is returned to its pool.
type Cleanup func(ctx context.Context) error

// SourceLoader makes a Source's rows queryable on an engine connection.
type SourceLoader interface {
	// Load materializes or attaches the source under req.Relation. On error nothing
	// is left behind and the returned Cleanup is nil.
	Load(ctx context.Context, conn Conn, req LoadRequest) (Cleanup, error)
}
