package mssql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectStatement(t *testing.T) {
	assert.Equal(t, "SELECT * FROM [dbo].[orders]", SelectStatement("orders", nil, nil))
	assert.Equal(t, "SELECT * FROM [sales].[orders]", SelectStatement("[sales].[orders]", nil, nil))
	assert.Equal(t,
		"SELECT [cust] AS [customer_id], [total] FROM [raw].[orders] WHERE total > 0",
		SelectStatement("sales.orders", map[string]string{"cust": "customer_id", "total": ""},
			map[string]string{"schema": "raw", "filter": "total > 0"}))
}

func TestQuoteName(t *testing.T) {
	assert.Equal(t, "[odd]]name]", quoteName("odd]name"))
}

func TestStagingStatements(t *testing.T) {
	cols := []column{
		{Name: "customer_id", SourceType: "INT"},
		{Name: "total", SourceType: "MONEY"},
		{Name: "placed_at", SourceType: "DATETIME2"},
		{Name: "ref", SourceType: "UNIQUEIDENTIFIER"},
	}
	assert.Equal(t,
		`CREATE OR REPLACE TEMP TABLE "source_table" ("customer_id" INTEGER, "total" DOUBLE, "placed_at" TIMESTAMP, "ref" VARCHAR)`,
		createTableStatement("source_table", cols))
	assert.Equal(t, `INSERT INTO "source_table" VALUES (?, ?, ?, ?)`, insertStatement("source_table", 4))
}

func TestDuckDBType(t *testing.T) {
	assert.Equal(t, "BOOLEAN", duckDBType("bit"))
	assert.Equal(t, "TIMESTAMPTZ", duckDBType("DATETIMEOFFSET"))
	assert.Equal(t, "BLOB", duckDBType("VARBINARY"))
	assert.Equal(t, "VARCHAR", duckDBType("GEOGRAPHY"))
}

func TestConvertValue(t *testing.T) {
	v, err := convertValue("DECIMAL", []byte("12.50"))
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = convertValue("NUMERIC", []byte("n/a"))
	assert.Error(t, err)

	v, err = convertValue("NVARCHAR", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = convertValue("INT", int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	v, err = convertValue("VARBINARY", []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, v)

	v, err = convertValue("DECIMAL", nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	guid := []byte{0x78, 0x56, 0x34, 0x12, 0x34, 0x12, 0x78, 0x56, 0x12, 0x34, 0x56, 0x78, 0x90, 0xab, 0xcd, 0xef}
	v, err = convertValue("UNIQUEIDENTIFIER", guid)
	require.NoError(t, err)
	assert.Equal(t, "12345678-1234-5678-1234-567890ABCDEF", v)
}
