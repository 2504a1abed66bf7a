package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-features/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-features/pkg/database"
	"github.com/ekaya-inc/ekaya-features/pkg/models"
)

// SourceRepository reads source rows from the registry store.
type SourceRepository interface {
	// Get returns the stored row for (name, version), or apperrors.ErrNotFound.
	Get(ctx context.Context, name, version string) (*models.SourceRow, error)
}

type sourceRepository struct{}

// NewSourceRepository creates a new source repository.
func NewSourceRepository() SourceRepository {
	return &sourceRepository{}
}

func (r *sourceRepository) Get(ctx context.Context, name, version string) (*models.SourceRow, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	query := `
		SELECT name, version, table_name, infra_type, field_mapping, owner, description, config
		FROM source
		WHERE name = $1 AND version = $2`

	var row models.SourceRow
	err := scope.Conn.QueryRow(ctx, query, name, version).Scan(
		&row.Name,
		&row.Version,
		&row.TableName,
		&row.InfraType,
		&row.FieldMapping,
		&row.Owner,
		&row.Description,
		&row.Config,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("source %s:%s: %w", name, version, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get source %s:%s: %w", name, version, err)
	}

	return &row, nil
}
