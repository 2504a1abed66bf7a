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

// FeatureRepository reads feature rows from the registry store.
type FeatureRepository interface {
	// FindLatest returns the row for (name, version) with the latest validity start.
	// When window is non-nil only rows whose validity lies entirely within it qualify.
	// Ties on start go to the most recently inserted row. Returns apperrors.ErrNotFound
	// when nothing qualifies.
	FindLatest(ctx context.Context, name, version string, window *models.TimeRange) (*models.FeatureRow, error)
}

type featureRepository struct{}

// NewFeatureRepository creates a new feature repository.
func NewFeatureRepository() FeatureRepository {
	return &featureRepository{}
}

const featureColumns = `
	id, name, version, source, entity, event_timestamp_field,
	start_event_datetime, end_event_datetime, ttl, "schema", sink, transform,
	description, owner, status`

const featureOrder = `
	ORDER BY start_event_datetime DESC NULLS LAST, id DESC
	LIMIT 1`

func (r *featureRepository) FindLatest(ctx context.Context, name, version string, window *models.TimeRange) (*models.FeatureRow, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, database.ErrNoScope
	}

	query := `SELECT ` + featureColumns + ` FROM feature WHERE name = $1 AND version = $2`
	args := []any{name, version}
	if window != nil {
		query += ` AND start_event_datetime >= $3 AND end_event_datetime <= $4`
		args = append(args, window.Start.UTC(), window.End.UTC())
	}
	query += featureOrder

	row, err := scanFeatureRow(scope.Conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("feature %s:%s: %w", name, version, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find feature %s:%s: %w", name, version, err)
	}
	return row, nil
}

func scanFeatureRow(row pgx.Row) (*models.FeatureRow, error) {
	var f models.FeatureRow
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Version,
		&f.Source,
		&f.Entity,
		&f.EventTimestampField,
		&f.StartEventDatetime,
		&f.EndEventDatetime,
		&f.TTL,
		&f.Schema,
		&f.Sink,
		&f.Transform,
		&f.Description,
		&f.Owner,
		&f.Status,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
