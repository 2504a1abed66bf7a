//go:build mssql || all_adapters

package mssql

import (
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.LoaderRegistration{
		Info: datasource.LoaderInfo{
			Type:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
			Description: "Tables in SQL Server 2019+, Azure SQL Database",
		},
		Aliases: []string{"mssql"},
		Factory: func(logger *zap.Logger) datasource.SourceLoader {
			return NewLoader(logger)
		},
	})
}
