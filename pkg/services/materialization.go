package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-features/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-features/pkg/engine"
	"github.com/ekaya-inc/ekaya-features/pkg/logging"
	"github.com/ekaya-inc/ekaya-features/pkg/models"
	"github.com/ekaya-inc/ekaya-features/pkg/telemetry"
)

// MaterializationService computes features and writes them to their sinks.
type MaterializationService interface {
	// Materialize loads the feature's source, runs its transform and writes the
	// result to its sink, replacing whatever the sink path held.
	//
	// Errors:
	//   - *apperrors.LoadError when the source cannot be loaded
	//   - *apperrors.TransformError when the transform is empty or fails
	//   - *apperrors.SinkError when the result cannot be written
	Materialize(ctx context.Context, feature *models.Feature) (*models.MaterializationResult, error)

	// MaterializeRequest resolves req and materializes the resulting feature.
	MaterializeRequest(ctx context.Context, req models.FeatureRequest) (*models.MaterializationResult, error)
}

type materializationService struct {
	features FeatureRegistry
	engine   engine.Engine
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewMaterializationService creates a new MaterializationService.
func NewMaterializationService(
	features FeatureRegistry,
	eng engine.Engine,
	tracer trace.Tracer,
	logger *zap.Logger,
) MaterializationService {
	return &materializationService{
		features: features,
		engine:   eng,
		tracer:   tracer,
		logger:   logger.Named("materialization"),
	}
}

var _ MaterializationService = (*materializationService)(nil)

func (s *materializationService) MaterializeRequest(ctx context.Context, req models.FeatureRequest) (*models.MaterializationResult, error) {
	feature, err := s.features.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Materialize(ctx, feature)
}

func (s *materializationService) Materialize(ctx context.Context, feature *models.Feature) (result *models.MaterializationResult, err error) {
	startedAt := time.Now()
	runID := uuid.New()
	featureID := feature.Name + ":" + feature.Version
	sourceID := feature.Source.Name + ":" + feature.Source.Version

	ctx, span := s.tracer.Start(ctx, "Materialize", trace.WithAttributes(
		attribute.String(telemetry.AttrRunID, runID.String()),
		attribute.String(telemetry.AttrFeatureName, feature.Name),
		attribute.String(telemetry.AttrFeatureVersion, feature.Version),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	logger := s.logger.With(
		zap.String("run_id", runID.String()),
		zap.String("feature", featureID))

	if strings.TrimSpace(feature.Transform) == "" {
		return nil, &apperrors.TransformError{Feature: featureID, Err: errors.New("empty transform")}
	}

	session, err := s.engine.NewSession(ctx)
	if err != nil {
		return nil, &apperrors.LoadError{Source: sourceID, Err: err}
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn("Failed to close engine session",
				zap.String("session_id", session.ID()),
				zap.String("error", logging.SanitizeError(closeErr)))
		}
	}()

	if err := s.load(ctx, session, &feature.Source); err != nil {
		return nil, &apperrors.LoadError{Source: sourceID, Err: err}
	}

	rows, err := s.transform(ctx, session, feature.Transform)
	if err != nil {
		return nil, &apperrors.TransformError{Feature: featureID, Err: err}
	}

	target := models.ResolveSinkTarget(feature.Sink)
	if err := s.write(ctx, session, target); err != nil {
		return nil, &apperrors.SinkError{Format: target.Format, Path: target.Path, Err: err}
	}

	result = &models.MaterializationResult{
		RunID:          runID,
		FeatureName:    feature.Name,
		FeatureVersion: feature.Version,
		SinkFormat:     target.Format,
		SinkPath:       target.Path,
		RowCount:       rows,
		StartedAt:      startedAt.UTC(),
		Duration:       time.Since(startedAt),
	}

	span.SetAttributes(attribute.Int64(telemetry.AttrRowCount, rows))
	logger.Info("Materialized feature",
		zap.String("source", sourceID),
		zap.String("sink_format", target.Format),
		zap.String("sink_path", target.Path),
		zap.Int64("rows", rows),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (s *materializationService) load(ctx context.Context, session engine.Session, source *models.Source) (err error) {
	ctx, span := s.tracer.Start(ctx, "Materialize.Load", trace.WithAttributes(
		attribute.String(telemetry.AttrSourceName, source.Name),
		attribute.String(telemetry.AttrSourceVersion, source.Version),
		attribute.String(telemetry.AttrInfraType, source.InfraType),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	return session.LoadSource(ctx, source)
}

func (s *materializationService) transform(ctx context.Context, session engine.Session, query string) (rows int64, err error) {
	ctx, span := s.tracer.Start(ctx, "Materialize.Transform")
	defer func() { telemetry.EndSpan(span, err) }()

	return session.Transform(ctx, query)
}

func (s *materializationService) write(ctx context.Context, session engine.Session, target models.SinkTarget) (err error) {
	ctx, span := s.tracer.Start(ctx, "Materialize.Write", trace.WithAttributes(
		attribute.String(telemetry.AttrSinkFormat, target.Format),
		attribute.String(telemetry.AttrSinkPath, target.Path),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	return session.Write(ctx, target)
}
