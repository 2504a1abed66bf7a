package cli

import (
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource/file"
	_ "github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/ekaya-features/pkg/adapters/datasource/postgres"
)

var loadersCmd = &cobra.Command{
	Use:   "loaders",
	Short: "List the source infra types this binary can load",
	Long: `List the source loaders compiled into this binary as JSON.

Database loaders are opt-in at build time:
  go build -tags all_adapters
  go build -tags postgres
  go build -tags mssql`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd.OutOrStdout(), datasource.RegisteredLoaders())
	},
}

func init() {
	rootCmd.AddCommand(loadersCmd)
}
