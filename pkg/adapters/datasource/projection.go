package datasource

import (
	"fmt"
	"sort"
	"strings"
)

// Source config keys shared by all loaders.
const (
	ConfigKeyPath   = "path"
	ConfigKeyFilter = "filter"
	ConfigKeySchema = "schema"
)

// QuoteIdentifier quotes a DuckDB identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a DuckDB string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Projection renders a field mapping as a select list. Raw column names are the
// keys, mapped names the values. An empty mapping selects every column.
// Keys are sorted so the same source always yields the same statement.
func Projection(fieldMapping map[string]string, quote func(string) string) string {
	if len(fieldMapping) == 0 {
		return "*"
	}

	raw := make([]string, 0, len(fieldMapping))
	for k := range fieldMapping {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	cols := make([]string, 0, len(raw))
	for _, k := range raw {
		mapped := fieldMapping[k]
		if mapped == "" || mapped == k {
			cols = append(cols, quote(k))
			continue
		}
		cols = append(cols, fmt.Sprintf("%s AS %s", quote(k), quote(mapped)))
	}
	return strings.Join(cols, ", ")
}

// SelectStatement builds the statement that reads a source relation, applying the
// field mapping and the optional config filter.
func SelectStatement(from string, fieldMapping, config map[string]string, quote func(string) string) string {
	stmt := "SELECT " + Projection(fieldMapping, quote) + " FROM " + from
	if filter := strings.TrimSpace(config[ConfigKeyFilter]); filter != "" {
		stmt += " WHERE " + filter
	}
	return stmt
}

// CreateViewStatement defines relation as a temporary view over selectSQL.
func CreateViewStatement(relation, selectSQL string) string {
	return fmt.Sprintf("CREATE OR REPLACE TEMP VIEW %s AS %s", QuoteIdentifier(relation), selectSQL)
}

// DropViewStatement drops a view created with CreateViewStatement.
func DropViewStatement(relation string) string {
	return "DROP VIEW IF EXISTS " + QuoteIdentifier(relation)
}

// Alias derives a catalog alias unique to a session, e.g. for attached databases.
func Alias(prefix, sessionID string) string {
	return prefix + "_" + strings.ReplaceAll(sessionID, "-", "_")
}

// SplitQualifiedName splits "schema.table" into its parts, falling back to defaultSchema.
// Bracket and double-quote delimiters are stripped.
func SplitQualifiedName(name, defaultSchema string) (schema, table string) {
	cleaned := strings.NewReplacer("[", "", "]", "", `"`, "").Replace(strings.TrimSpace(name))
	if i := strings.LastIndex(cleaned, "."); i > 0 {
		return cleaned[:i], cleaned[i+1:]
	}
	return defaultSchema, cleaned
}
