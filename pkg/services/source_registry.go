package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-features/pkg/database"
	"github.com/ekaya-inc/ekaya-features/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-features/pkg/models"
	"github.com/ekaya-inc/ekaya-features/pkg/repositories"
)

// SourceRegistry resolves versioned sources.
type SourceRegistry interface {
	// Resolve returns the source (name, version).
	// Returns apperrors.ErrNotFound when absent and a *apperrors.DecodeError when
	// field_mapping or config is stored but malformed.
	Resolve(ctx context.Context, name, version string) (*models.Source, error)

	// ResolveRef resolves a reference given as a map with "name" and "version" keys.
	ResolveRef(ctx context.Context, ref map[string]string) (*models.Source, error)
}

type sourceRegistry struct {
	scopes database.ScopeProvider
	repo   repositories.SourceRepository
	logger *zap.Logger
}

// NewSourceRegistry creates a new SourceRegistry.
func NewSourceRegistry(scopes database.ScopeProvider, repo repositories.SourceRepository, logger *zap.Logger) SourceRegistry {
	return &sourceRegistry{
		scopes: scopes,
		repo:   repo,
		logger: logger.Named("source-registry"),
	}
}

var _ SourceRegistry = (*sourceRegistry)(nil)

func (r *sourceRegistry) ResolveRef(ctx context.Context, ref map[string]string) (*models.Source, error) {
	sourceRef, err := models.SourceRefFromMap(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	return r.Resolve(ctx, sourceRef.Name, sourceRef.Version)
}

func (r *sourceRegistry) Resolve(ctx context.Context, name, version string) (*models.Source, error) {
	ctx, release, err := r.scopes.WithScope(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire registry connection: %w", err)
	}
	defer release()

	row, err := r.repo.Get(ctx, name, version)
	if err != nil {
		return nil, err
	}

	source, err := decodeSource(row)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Resolved source",
		zap.String("source", name+":"+version),
		zap.String("infra_type", source.InfraType))

	return source, nil
}

func decodeSource(row *models.SourceRow) (*models.Source, error) {
	fieldMapping, err := jsonutil.DecodeStringMap(deref(row.FieldMapping))
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "source.field_mapping", Err: err}
	}
	cfg, err := jsonutil.DecodeStringMap(deref(row.Config))
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "source.config", Err: err}
	}

	return &models.Source{
		Name:         row.Name,
		Version:      row.Version,
		TableName:    row.TableName,
		InfraType:    row.InfraType,
		FieldMapping: fieldMapping,
		Owner:        deref(row.Owner),
		Description:  deref(row.Description),
		Config:       cfg,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
