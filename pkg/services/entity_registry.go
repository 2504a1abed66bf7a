package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-features/pkg/database"
	"github.com/ekaya-inc/ekaya-features/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-features/pkg/models"
	"github.com/ekaya-inc/ekaya-features/pkg/repositories"
)

// EntityRegistry resolves entities by name.
type EntityRegistry interface {
	// Resolve returns the entity called name.
	// Returns apperrors.ErrNotFound when no entity has that name and a
	// *apperrors.DecodeError when its join keys are not a non-empty JSON array.
	Resolve(ctx context.Context, name string) (*models.Entity, error)
}

type entityRegistry struct {
	scopes database.ScopeProvider
	repo   repositories.EntityRepository
	logger *zap.Logger
}

// NewEntityRegistry creates a new EntityRegistry.
func NewEntityRegistry(scopes database.ScopeProvider, repo repositories.EntityRepository, logger *zap.Logger) EntityRegistry {
	return &entityRegistry{
		scopes: scopes,
		repo:   repo,
		logger: logger.Named("entity-registry"),
	}
}

var _ EntityRegistry = (*entityRegistry)(nil)

func (r *entityRegistry) Resolve(ctx context.Context, name string) (*models.Entity, error) {
	ctx, release, err := r.scopes.WithScope(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire registry connection: %w", err)
	}
	defer release()

	row, err := r.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	joinKeys, err := jsonutil.DecodeStringList(row.JoinKeys)
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "entity.join_keys", Err: err}
	}
	if len(joinKeys) == 0 {
		return nil, &apperrors.DecodeError{Field: "entity.join_keys", Err: errors.New("no join keys")}
	}

	r.logger.Debug("Resolved entity", zap.String("entity", name), zap.Strings("join_keys", joinKeys))

	return &models.Entity{Name: row.Name, JoinKeys: joinKeys}, nil
}
