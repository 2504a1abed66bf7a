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

// EntityRepository reads entity rows from the registry store.
type EntityRepository interface {
	// GetByName returns the stored row for name, or apperrors.ErrNotFound.
	GetByName(ctx context.Context, name string) (*models.EntityRow, error)
}

type entityRepository struct{}

// NewEntityRepository creates a new entity repository.
func NewEntityRepository() EntityRepository {
	return &entityRepository{}
}

func (r *entityRepository) GetByName(ctx context.Context, name string) (*models.EntityRow, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	var row models.EntityRow
	var joinKeys *string
	err := scope.Conn.QueryRow(ctx,
		`SELECT name, join_keys FROM entity WHERE name = $1`, name,
	).Scan(&row.Name, &joinKeys)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entity %q: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get entity %q: %w", name, err)
	}
	if joinKeys != nil {
		row.JoinKeys = *joinKeys
	}

	return &row, nil
}
