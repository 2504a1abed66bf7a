package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-features/pkg/crypto"
	"github.com/ekaya-inc/ekaya-features/pkg/engine"
	"github.com/ekaya-inc/ekaya-features/pkg/logging"
	"github.com/ekaya-inc/ekaya-features/pkg/models"
	sqlcheck "github.com/ekaya-inc/ekaya-features/pkg/sql"
)

// cleanupTimeout bounds teardown, which runs even after the caller's context is done.
const cleanupTimeout = 30 * time.Second

type session struct {
	id          string
	conn        *sql.Conn
	credentials *crypto.CredentialEncryptor
	logger      *zap.Logger
	cleanups    []datasource.Cleanup
	closed      bool
}

func (s *session) ID() string { return s.id }

func (s *session) LoadSource(ctx context.Context, source *models.Source) error {
	loader, err := datasource.NewLoader(source.InfraType, s.logger)
	if err != nil {
		return err
	}

	cfg, err := s.credentials.ResolveConfig(source.Config)
	if err != nil {
		return err
	}
	resolved := *source
	resolved.Config = cfg

	cleanup, err := loader.Load(ctx, s.conn, datasource.LoadRequest{
		Source:    &resolved,
		Relation:  engine.SourceRelation,
		SessionID: s.id,
	})
	if err != nil {
		return err
	}
	s.cleanups = append(s.cleanups, cleanup)
	return nil
}

func (s *session) Transform(ctx context.Context, query string) (int64, error) {
	query, err := sqlcheck.NormalizeStatement(query)
	if err != nil {
		return 0, err
	}

	result := datasource.QuoteIdentifier(engine.ResultRelation)
	s.logger.Debug("Running transform", zap.String("query", logging.SanitizeQuery(query)))

	stmt := fmt.Sprintf("CREATE OR REPLACE TEMP TABLE %s AS %s", result, query)
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return 0, err
	}
	s.cleanups = append(s.cleanups, func(ctx context.Context) error {
		_, err := s.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+result)
		return err
	})

	var count int64
	if err := s.conn.QueryRowContext(ctx, "SELECT count(*) FROM "+result).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transform rows: %w", err)
	}
	return count, nil
}

// Supported sink formats.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatJSON    = "json"
)

// copyOptions lists the sink options passed through to COPY per format.
var copyOptions = map[string][]string{
	FormatParquet: {"compression", "row_group_size"},
	FormatCSV:     {"header", "delimiter", "quote", "compression"},
	FormatJSON:    {"compression"},
}

// CopyStatement renders the COPY that writes the result relation to target.
func CopyStatement(relation string, target models.SinkTarget) (string, error) {
	format := strings.ToLower(strings.TrimSpace(target.Format))
	allowed, ok := copyOptions[format]
	if !ok {
		return "", fmt.Errorf("unsupported sink format %q", target.Format)
	}

	opts := []string{"FORMAT " + format}
	keys := make([]string, 0, len(target.Options))
	for k := range target.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !contains(allowed, k) {
			continue
		}
		opts = append(opts, fmt.Sprintf("%s %s", strings.ToUpper(k), optionValue(target.Options[k])))
	}

	return fmt.Sprintf("COPY %s TO %s (%s)",
		datasource.QuoteIdentifier(relation),
		datasource.QuoteLiteral(target.Path),
		strings.Join(opts, ", ")), nil
}

func optionValue(v string) string {
	switch strings.ToLower(v) {
	case "true", "false":
		return strings.ToLower(v)
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return v
	}
	return datasource.QuoteLiteral(v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// isLocalPath reports whether path is on the local filesystem (no URL scheme).
func isLocalPath(path string) bool {
	return !strings.Contains(path, "://")
}

// prepareLocalSink creates the parent directory of path and removes a dataset
// directory left at path by an earlier writer. COPY replaces plain files itself.
func prepareLocalSink(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sink directory: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("replace sink directory: %w", err)
	}
	return nil
}

func (s *session) Write(ctx context.Context, target models.SinkTarget) error {
	stmt, err := CopyStatement(engine.ResultRelation, target)
	if err != nil {
		return err
	}

	if isLocalPath(target.Path) {
		if err := prepareLocalSink(target.Path); err != nil {
			return err
		}
	}

	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return err
	}
	return nil
}

// Close runs cleanups in reverse order, then returns the connection to the pool.
// Cleanup failures are logged; the first one is returned.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	var firstErr error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := s.cleanups[i](ctx); err != nil {
			s.logger.Warn("Session cleanup failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	s.cleanups = nil

	if err := s.conn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

var _ engine.Session = (*session)(nil)
