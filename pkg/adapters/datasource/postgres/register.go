//go:build postgres || all_adapters

package postgres

import (
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.LoaderRegistration{
		Info: datasource.LoaderInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "Tables in PostgreSQL 12+, Aurora PostgreSQL, Supabase",
		},
		Aliases: []string{"postgresql", "pg"},
		Factory: func(logger *zap.Logger) datasource.SourceLoader {
			return NewLoader(logger)
		},
	})
}
