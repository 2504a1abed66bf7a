package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
)

// File formats served by this package.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatJSON    = "json"
)

// Config keys read for file sources, besides datasource.ConfigKeyPath and ConfigKeyFilter.
const (
	ConfigKeyHeader           = "header"
	ConfigKeyDelimiter        = "delimiter"
	ConfigKeyHivePartitioning = "hive_partitioning"
	ConfigKeyUnionByName      = "union_by_name"
)

// Loader exposes files (local paths or globs, or any location DuckDB can read)
// as a temporary view.
type Loader struct {
	format string
	logger *zap.Logger
}

// NewLoader creates a loader for one file format.
func NewLoader(format string, logger *zap.Logger) *Loader {
	return &Loader{format: format, logger: logger}
}

// Location returns where the source's data lives: config["path"] when set,
// otherwise the table name.
func Location(cfg map[string]string, tableName string) string {
	if p := strings.TrimSpace(cfg[datasource.ConfigKeyPath]); p != "" {
		return p
	}
	return strings.TrimSpace(tableName)
}

// filePatterns names the files a dataset directory is scanned for, per format.
var filePatterns = map[string]string{
	FormatParquet: "*.parquet",
	FormatCSV:     "*.csv",
	FormatJSON:    "*.*json",
}

// ExpandLocation turns a local dataset directory into a recursive glob over its
// data files. Globs, remote URLs and plain files are returned unchanged.
func ExpandLocation(format, location string) string {
	pattern, ok := filePatterns[format]
	if !ok || strings.Contains(location, "://") || strings.ContainsAny(location, "*?[") {
		return location
	}
	info, err := os.Stat(location)
	if err != nil || !info.IsDir() {
		return location
	}
	return filepath.Join(location, "**", pattern)
}

// ReadFunction renders the DuckDB table function that scans location.
func ReadFunction(format, location string, cfg map[string]string) (string, error) {
	var fn string
	var opts []string

	switch format {
	case FormatParquet:
		fn = "read_parquet"
		opts = boolOptions(cfg, ConfigKeyHivePartitioning, ConfigKeyUnionByName)
	case FormatCSV:
		fn = "read_csv_auto"
		opts = boolOptions(cfg, ConfigKeyHeader, ConfigKeyHivePartitioning, ConfigKeyUnionByName)
		if d, ok := cfg[ConfigKeyDelimiter]; ok && d != "" {
			opts = append(opts, "delim = "+datasource.QuoteLiteral(d))
		}
	case FormatJSON:
		fn = "read_json_auto"
	default:
		return "", fmt.Errorf("unsupported file format %q", format)
	}

	args := append([]string{datasource.QuoteLiteral(location)}, opts...)
	return fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", ")), nil
}

func boolOptions(cfg map[string]string, keys ...string) []string {
	sort.Strings(keys)
	var opts []string
	for _, key := range keys {
		v, ok := cfg[key]
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			opts = append(opts, key+" = true")
		case "false", "0", "no":
			opts = append(opts, key+" = false")
		}
	}
	return opts
}

// Load defines req.Relation as a view over the source files. Nothing is read
// until the transform runs.
func (l *Loader) Load(ctx context.Context, conn datasource.Conn, req datasource.LoadRequest) (datasource.Cleanup, error) {
	src := req.Source
	location := Location(src.Config, src.TableName)
	if location == "" {
		return nil, fmt.Errorf("source %s:%s has no path or table_name", src.Name, src.Version)
	}

	from, err := ReadFunction(l.format, ExpandLocation(l.format, location), src.Config)
	if err != nil {
		return nil, err
	}

	stmt := datasource.CreateViewStatement(req.Relation,
		datasource.SelectStatement(from, src.FieldMapping, src.Config, datasource.QuoteIdentifier))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("define view over %s: %w", location, err)
	}

	l.logger.Debug("Defined file source view",
		zap.String("source", src.Name+":"+src.Version),
		zap.String("format", l.format),
		zap.String("location", location))

	return func(ctx context.Context) error {
		_, err := conn.ExecContext(ctx, datasource.DropViewStatement(req.Relation))
		return err
	}, nil
}

var _ datasource.SourceLoader = (*Loader)(nil)
