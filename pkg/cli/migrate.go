package cli

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-features/pkg/config"
	"github.com/ekaya-inc/ekaya-features/pkg/database"
	"github.com/ekaya-inc/ekaya-features/pkg/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the registry schema",
	Long: `Apply pending registry schema migrations. Safe to run repeatedly.

Resolution and materialization only read the registry; this command exists to
bootstrap an empty store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, rootCmd.Version)
		if err != nil {
			return err
		}
		logger, err := logging.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		db, err := sql.Open("pgx", cfg.Database.ConnectionString())
		if err != nil {
			return fmt.Errorf("failed to open registry store: %w", err)
		}
		defer db.Close()

		return database.RunMigrations(db, logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
