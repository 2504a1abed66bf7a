package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-features/pkg/database"
	"github.com/ekaya-inc/ekaya-features/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-features/pkg/models"
	"github.com/ekaya-inc/ekaya-features/pkg/repositories"
	"github.com/ekaya-inc/ekaya-features/pkg/telemetry"
)

// FeatureRegistry resolves feature definitions, embedding their entity and source.
type FeatureRegistry interface {
	// Resolve selects the definition for req and resolves its references.
	// Among rows sharing (name, version), and contained in req.Window when set,
	// the one with the latest validity start wins.
	//
	// Errors:
	//   - apperrors.ErrNotFound when no row qualifies
	//   - *apperrors.ReferenceError when the entity or source does not resolve
	//   - *apperrors.DecodeError when a stored column is malformed
	Resolve(ctx context.Context, req models.FeatureRequest) (*models.Feature, error)

	// ResolveRef resolves a request given as a map (see models.FeatureRequestFromMap).
	ResolveRef(ctx context.Context, ref map[string]string) (*models.Feature, error)
}

type featureRegistry struct {
	scopes   database.ScopeProvider
	repo     repositories.FeatureRepository
	entities EntityRegistry
	sources  SourceRegistry
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewFeatureRegistry creates a new FeatureRegistry.
func NewFeatureRegistry(
	scopes database.ScopeProvider,
	repo repositories.FeatureRepository,
	entities EntityRegistry,
	sources SourceRegistry,
	tracer trace.Tracer,
	logger *zap.Logger,
) FeatureRegistry {
	return &featureRegistry{
		scopes:   scopes,
		repo:     repo,
		entities: entities,
		sources:  sources,
		tracer:   tracer,
		logger:   logger.Named("feature-registry"),
	}
}

var _ FeatureRegistry = (*featureRegistry)(nil)

func (r *featureRegistry) ResolveRef(ctx context.Context, ref map[string]string) (*models.Feature, error) {
	req, err := models.FeatureRequestFromMap(ref)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, req)
}

func (r *featureRegistry) Resolve(ctx context.Context, req models.FeatureRequest) (feature *models.Feature, err error) {
	ctx, span := r.tracer.Start(ctx, "FeatureRegistry.Resolve", trace.WithAttributes(
		attribute.String(telemetry.AttrFeatureName, req.Name),
		attribute.String(telemetry.AttrFeatureVersion, req.Version),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	// entity and source lookups below reuse this connection
	ctx, release, err := r.scopes.WithScope(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire registry connection: %w", err)
	}
	defer release()

	row, err := r.repo.FindLatest(ctx, req.Name, req.Version, req.Window)
	if err != nil {
		return nil, err
	}
	if req.Window != nil && !req.Window.Contains(row.StartEventDatetime, row.EndEventDatetime) {
		r.logger.Warn("Store returned a feature outside the requested window",
			zap.String("feature", req.Name+":"+req.Version),
			zap.Int64("row_id", row.ID),
			zap.Stringer("window", req.Window))
		return nil, fmt.Errorf("feature %s:%s within %s: %w", req.Name, req.Version, req.Window, apperrors.ErrNotFound)
	}

	entityRef, err := models.DecodeEntityRef(row.Entity)
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "feature.entity", Err: err}
	}
	sourceRef, err := models.DecodeSourceRef(row.Source)
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "feature.source", Err: err}
	}

	entity, err := r.entities.Resolve(ctx, entityRef.Name)
	if err != nil {
		return nil, referenceError("entity", entityRef.String(), err)
	}
	source, err := r.sources.Resolve(ctx, sourceRef.Name, sourceRef.Version)
	if err != nil {
		return nil, referenceError("source", sourceRef.String(), err)
	}

	feature, err = decodeFeature(row)
	if err != nil {
		return nil, err
	}
	feature.Entity = *entity
	feature.Source = *source

	r.logger.Debug("Resolved feature",
		zap.String("feature", feature.Name+":"+feature.Version),
		zap.Int64("row_id", row.ID),
		zap.String("source", sourceRef.String()),
		zap.String("entity", entityRef.String()))

	return feature, nil
}

// referenceError wraps lookup failures that mean the reference itself is bad.
// Store errors pass through unchanged.
func referenceError(kind, ref string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrDecode) {
		return &apperrors.ReferenceError{Kind: kind, Ref: ref, Err: err}
	}
	return err
}

func decodeFeature(row *models.FeatureRow) (*models.Feature, error) {
	ttl, err := decodeTTL(deref(row.TTL))
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "feature.ttl", Err: err}
	}
	schema, err := jsonutil.DecodeStringMap(deref(row.Schema))
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "feature.schema", Err: err}
	}
	sink, err := jsonutil.DecodeStringMap(deref(row.Sink))
	if err != nil {
		return nil, &apperrors.DecodeError{Field: "feature.sink", Err: err}
	}

	transform := deref(row.Transform)
	if strings.TrimSpace(transform) == "" {
		return nil, &apperrors.DecodeError{Field: "feature.transform", Err: errors.New("empty transform")}
	}

	start, end := row.StartEventDatetime, row.EndEventDatetime
	if start != nil && end != nil && start.After(*end) {
		return nil, &apperrors.DecodeError{
			Field: "feature.validity",
			Err:   fmt.Errorf("start %s is after end %s", start.UTC(), end.UTC()),
		}
	}

	status := models.FeatureStatusTodo
	if row.Status != nil && *row.Status != "" {
		status = models.FeatureStatus(*row.Status)
	}

	return &models.Feature{
		Name:                row.Name,
		Version:             row.Version,
		EventTimestampField: deref(row.EventTimestampField),
		ValidityStart:       start,
		ValidityEnd:         end,
		TTL:                 ttl,
		Schema:              schema,
		Sink:                sink,
		Transform:           transform,
		Description:         deref(row.Description),
		Owner:               deref(row.Owner),
		Status:              status,
	}, nil
}

// decodeTTL parses a stored ttl in seconds. Blank means zero.
func decodeTTL(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	ttl, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("ttl %q is not an integer", text)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("ttl %d is negative", ttl)
	}
	return ttl, nil
}
