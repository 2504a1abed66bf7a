package mssql

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
)

// quoteName quotes a SQL Server identifier the way QUOTENAME() does.
func quoteName(identifier string) string {
	return fmt.Sprintf("[%s]", strings.ReplaceAll(identifier, "]", "]]"))
}

// buildFullyQualifiedName builds [schema].[table] from a possibly qualified table name.
func buildFullyQualifiedName(tableName, schemaOverride string) string {
	schema, table := datasource.SplitQualifiedName(tableName, DefaultSchema())
	if schemaOverride != "" {
		schema = schemaOverride
	}
	return quoteName(schema) + "." + quoteName(table)
}

// SelectStatement builds the T-SQL that reads a source table, applying the field
// mapping and the optional config filter.
func SelectStatement(tableName string, fieldMapping, config map[string]string) string {
	from := buildFullyQualifiedName(tableName, config[datasource.ConfigKeySchema])
	return datasource.SelectStatement(from, fieldMapping, config, quoteName)
}

// duckDBType maps a SQL Server type name (as reported by the driver) to the DuckDB
// column type used for the staged copy.
func duckDBType(sqlServerType string) string {
	switch strings.ToUpper(sqlServerType) {
	case "TINYINT":
		return "UTINYINT"
	case "SMALLINT":
		return "SMALLINT"
	case "INT":
		return "INTEGER"
	case "BIGINT":
		return "BIGINT"

	// decimals arrive as text from the driver and are parsed before insert
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY", "FLOAT":
		return "DOUBLE"
	case "REAL":
		return "FLOAT"

	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT", "XML", "JSON", "UNIQUEIDENTIFIER":
		return "VARCHAR"

	case "BINARY", "VARBINARY", "IMAGE":
		return "BLOB"

	case "DATE":
		return "DATE"
	case "TIME":
		return "TIME"
	case "DATETIME", "DATETIME2", "SMALLDATETIME":
		return "TIMESTAMP"
	case "DATETIMEOFFSET":
		return "TIMESTAMPTZ"

	case "BIT":
		return "BOOLEAN"

	default:
		return "VARCHAR"
	}
}

// column is one staged column: its output name and SQL Server type.
type column struct {
	Name       string
	SourceType string
}

// createTableStatement renders the DuckDB temp table that receives the rows.
func createTableStatement(relation string, cols []column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = datasource.QuoteIdentifier(c.Name) + " " + duckDBType(c.SourceType)
	}
	return fmt.Sprintf("CREATE OR REPLACE TEMP TABLE %s (%s)", datasource.QuoteIdentifier(relation), strings.Join(defs, ", "))
}

// insertStatement renders a parameterized insert for every column of relation.
func insertStatement(relation string, n int) string {
	params := make([]string, n)
	for i := range params {
		params[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", datasource.QuoteIdentifier(relation), strings.Join(params, ", "))
}
