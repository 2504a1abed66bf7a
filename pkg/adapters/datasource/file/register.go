package file

import (
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.LoaderRegistration{
		Info: datasource.LoaderInfo{
			Type:        FormatParquet,
			DisplayName: "Parquet files",
			Description: "Parquet files or globs, local or any location DuckDB can read",
		},
		Factory: func(logger *zap.Logger) datasource.SourceLoader {
			return NewLoader(FormatParquet, logger)
		},
	})
	datasource.Register(datasource.LoaderRegistration{
		Info: datasource.LoaderInfo{
			Type:        FormatCSV,
			DisplayName: "CSV files",
			Description: "Delimited text files with sniffed dialect and types",
		},
		Factory: func(logger *zap.Logger) datasource.SourceLoader {
			return NewLoader(FormatCSV, logger)
		},
	})
	datasource.Register(datasource.LoaderRegistration{
		Info: datasource.LoaderInfo{
			Type:        FormatJSON,
			DisplayName: "JSON files",
			Description: "Newline-delimited or array JSON files",
		},
		Aliases: []string{"ndjson"},
		Factory: func(logger *zap.Logger) datasource.SourceLoader {
			return NewLoader(FormatJSON, logger)
		},
	})
}
