package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	_ "github.com/microsoft/go-mssqldb/azuread" // registers the azuresql driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-features/pkg/config"
	"github.com/ekaya-inc/ekaya-features/pkg/logging"
)

// Loader copies a SQL Server table (or its filtered projection) into a DuckDB
// temporary table. DuckDB cannot attach SQL Server, so rows stream through the driver.
type Loader struct {
	logger *zap.Logger
	open   func(cfg *Config) (*sql.DB, error)
}

// NewLoader creates a SQL Server source loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger, open: openDB}
}

func openDB(cfg *Config) (*sql.DB, error) {
	driver, dsn, err := connectionURL(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", cfg.AuthMethod, err)
	}
	return db, nil
}

// connectionURL returns the driver name and DSN for cfg's auth method.
// service_principal goes through the azuread driver.
func connectionURL(cfg *Config) (driver, dsn string, err error) {
	query := baseQuery(cfg)
	u := url.URL{Scheme: "sqlserver", Host: serverAddress(cfg)}

	switch cfg.AuthMethod {
	case "sql":
		driver = "sqlserver"
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	case "service_principal":
		driver = "azuresql"
		query.Add("fedauth", "ActiveDirectoryServicePrincipal")
		query.Add("user id", cfg.ClientID+"@"+cfg.TenantID)
		query.Add("password", cfg.ClientSecret)
	default:
		return "", "", fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}

	u.RawQuery = query.Encode()
	return driver, u.String(), nil
}

// serverAddress is host:port with loopback hosts redirected when running in Docker.
func serverAddress(cfg *Config) string {
	return net.JoinHostPort(config.ResolveHostForDocker(cfg.Host), strconv.Itoa(cfg.Port))
}

func baseQuery(cfg *Config) url.Values {
	query := url.Values{}
	query.Add("database", cfg.Database)
	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", strconv.Itoa(cfg.ConnectionTimeout))
	}
	return query
}

func (l *Loader) Load(ctx context.Context, conn datasource.Conn, req datasource.LoadRequest) (datasource.Cleanup, error) {
	src := req.Source
	cfg, err := FromMap(src.Config)
	if err != nil {
		return nil, fmt.Errorf("invalid sqlserver config: %w", err)
	}

	db, err := l.open(cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := SelectStatement(src.TableName, src.FieldMapping, src.Config)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %s", cfg.Host, logging.SanitizeError(err))
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}
	cols := make([]column, len(colTypes))
	for i, ct := range colTypes {
		cols[i] = column{Name: ct.Name(), SourceType: ct.DatabaseTypeName()}
	}

	if _, err := conn.ExecContext(ctx, createTableStatement(req.Relation, cols)); err != nil {
		return nil, fmt.Errorf("create staging table: %w", err)
	}
	drop := func(ctx context.Context) error {
		_, err := conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+datasource.QuoteIdentifier(req.Relation))
		return err
	}

	copied, err := copyRows(ctx, conn, req.Relation, cols, rows)
	if err != nil {
		if dropErr := drop(ctx); dropErr != nil {
			l.logger.Warn("Failed to drop staging table", zap.String("relation", req.Relation), zap.Error(dropErr))
		}
		return nil, err
	}

	l.logger.Debug("Copied sqlserver source",
		zap.String("source", src.Name+":"+src.Version),
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.Int64("rows", copied))

	return drop, nil
}

func copyRows(ctx context.Context, conn datasource.Conn, relation string, cols []column, rows *sql.Rows) (int64, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin staging transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertStatement(relation, len(cols)))
	if err != nil {
		return 0, fmt.Errorf("prepare staging insert: %w", err)
	}
	defer stmt.Close()

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	var copied int64
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return 0, fmt.Errorf("scan row %d: %w", copied+1, err)
		}
		args := make([]any, len(cols))
		for i, c := range cols {
			v, err := convertValue(c.SourceType, values[i])
			if err != nil {
				return 0, fmt.Errorf("row %d column %s: %w", copied+1, c.Name, err)
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", copied+1, err)
		}
		copied++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit staging rows: %w", err)
	}
	return copied, nil
}

// convertValue adapts driver values to what the staged DuckDB column accepts.
func convertValue(sourceType string, v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return v, nil
	}

	switch strings.ToUpper(sourceType) {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return strconv.ParseFloat(string(b), 64)
	case "UNIQUEIDENTIFIER":
		var id mssql.UniqueIdentifier
		if err := id.Scan(b); err != nil {
			return nil, err
		}
		return id.String(), nil
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT", "XML", "JSON":
		return string(b), nil
	default:
		return b, nil
	}
}

var _ datasource.SourceLoader = (*Loader)(nil)
