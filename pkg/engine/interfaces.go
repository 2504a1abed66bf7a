package engine

import (
	"context"

	"github.com/ekaya-inc/ekaya-features/pkg/models"
)

// Relation names visible to a feature's transform.
const (
	// SourceRelation is the fixed alias under which the loaded Source is queryable.
	SourceRelation = "source_table"
	// ResultRelation holds the transform output until it is written.
	ResultRelation = "feature_result"
)

// Engine opens isolated sessions on the query engine.
type Engine interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// Session is one materialization's private view of the engine. Relations created in a
// session are invisible to other sessions. Close must be called on every path.
type Session interface {
	// ID is unique per session.
	ID() string

	// LoadSource makes the source's rows queryable as SourceRelation.
	LoadSource(ctx context.Context, source *models.Source) error

	// Transform runs query against the session and stores the result as ResultRelation.
	// It returns the number of result rows.
	Transform(ctx context.Context, query string) (int64, error)

	// Write copies ResultRelation to target, replacing anything already at the path.
	Write(ctx context.Context, target models.SinkTarget) error

	// Close drops everything the session created and releases its connection.
	Close() error
}
