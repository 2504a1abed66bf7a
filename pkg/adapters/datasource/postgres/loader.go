package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-features/pkg/logging"
)

// Loader attaches a PostgreSQL database read-only through DuckDB's postgres
// extension and exposes one table as a temporary view.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a postgres source loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// AttachStatement renders the ATTACH for cfg under alias.
func AttachStatement(cfg *Config, alias string) string {
	return fmt.Sprintf("ATTACH %s AS %s (TYPE postgres, READ_ONLY)",
		datasource.QuoteLiteral(cfg.ConnectionString()), datasource.QuoteIdentifier(alias))
}

// TableReference returns the fully qualified relation for a source table inside
// the attached catalog. A schema in config wins over one in the table name.
func TableReference(alias string, cfg *Config, tableName string) string {
	schema, table := datasource.SplitQualifiedName(tableName, DefaultSchema())
	if cfg.Schema != "" {
		schema = cfg.Schema
	}
	return datasource.QuoteIdentifier(alias) + "." +
		datasource.QuoteIdentifier(schema) + "." +
		datasource.QuoteIdentifier(table)
}

func (l *Loader) Load(ctx context.Context, conn datasource.Conn, req datasource.LoadRequest) (datasource.Cleanup, error) {
	src := req.Source
	cfg, err := FromMap(src.Config)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "INSTALL postgres"); err != nil {
		return nil, fmt.Errorf("install postgres extension: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "LOAD postgres"); err != nil {
		return nil, fmt.Errorf("load postgres extension: %w", err)
	}

	alias := datasource.Alias("pg", req.SessionID)
	if _, err := conn.ExecContext(ctx, AttachStatement(cfg, alias)); err != nil {
		return nil, fmt.Errorf("attach postgres %s: %s", cfg.Host, logging.SanitizeError(err))
	}
	detach := func(ctx context.Context) error {
		_, err := conn.ExecContext(ctx, "DETACH DATABASE IF EXISTS "+datasource.QuoteIdentifier(alias))
		return err
	}

	from := TableReference(alias, cfg, src.TableName)
	stmt := datasource.CreateViewStatement(req.Relation,
		datasource.SelectStatement(from, src.FieldMapping, src.Config, datasource.QuoteIdentifier))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		if detachErr := detach(ctx); detachErr != nil {
			l.logger.Warn("Failed to detach postgres source", zap.String("alias", alias), zap.Error(detachErr))
		}
		return nil, fmt.Errorf("define view over %s: %w", from, err)
	}

	l.logger.Debug("Attached postgres source",
		zap.String("source", src.Name+":"+src.Version),
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.String("relation", from))

	return func(ctx context.Context) error {
		if _, err := conn.ExecContext(ctx, datasource.DropViewStatement(req.Relation)); err != nil {
			return err
		}
		return detach(ctx)
	}, nil
}

var _ datasource.SourceLoader = (*Loader)(nil)
