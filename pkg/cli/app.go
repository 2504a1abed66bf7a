package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/config"
	"github.com/ekaya-inc/ekaya-features/pkg/database"
	"github.com/ekaya-inc/ekaya-features/pkg/engine/duckdb"
	"github.com/ekaya-inc/ekaya-features/pkg/logging"
	"github.com/ekaya-inc/ekaya-features/pkg/repositories"
	"github.com/ekaya-inc/ekaya-features/pkg/services"
	"github.com/ekaya-inc/ekaya-features/pkg/telemetry"
)

// app holds the process-wide handles for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	tracing *telemetry.Provider
	db      *database.DB
	engine  *duckdb.Engine

	features     services.FeatureRegistry
	materializer services.MaterializationService
}

// newApp wires the registry. The query engine is only opened when withEngine is set.
func newApp(ctx context.Context, withEngine bool) (*app, error) {
	cfg, err := config.Load(cfgFile, rootCmd.Version)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	a.tracing, err = telemetry.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	a.db, err = database.NewConnection(ctx, database.ConfigFrom(cfg.Database), logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect to registry store: %w", err)
	}

	scopes := database.NewScopeProvider(a.db)
	tracer := a.tracing.Tracer()
	a.features = services.NewFeatureRegistry(
		scopes,
		repositories.NewFeatureRepository(),
		services.NewEntityRegistry(scopes, repositories.NewEntityRepository(), logger),
		services.NewSourceRegistry(scopes, repositories.NewSourceRepository(), logger),
		tracer,
		logger,
	)

	if withEngine {
		a.engine, err = duckdb.New(ctx, cfg.Engine, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.materializer = services.NewMaterializationService(a.features, a.engine, tracer, logger)
	}

	logger.Debug("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.Bool("tracing", a.tracing.Enabled()))

	return a, nil
}

func (a *app) close() {
	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			a.logger.Warn("Failed to close query engine", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.tracing != nil {
		if err := a.tracing.Shutdown(context.Background()); err != nil {
			a.logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
