package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/ekaya-inc/ekaya-features/pkg/database"
)

// FeatureFixture is a raw feature row. JSON columns are inserted verbatim so tests
// can store malformed values.
type FeatureFixture struct {
	Name, Version         string
	Source, Entity        string
	EventTimestampField   string
	Start, End            *time.Time
	TTL                   *string
	Schema, Sink          *string
	Transform             string
	Description, Owner    string
	Status                *string
}

// InsertEntity stores an entity row through the scoped connection in ctx.
func InsertEntity(t *testing.T, ctx context.Context, name string, joinKeys *string) {
	t.Helper()
	exec(t, ctx, `INSERT INTO entity (name, join_keys) VALUES ($1, $2)`, name, joinKeys)
}

// InsertSource stores a source row through the scoped connection in ctx.
func InsertSource(t *testing.T, ctx context.Context, name, version, tableName, infraType string, fieldMapping, config *string) {
	t.Helper()
	exec(t, ctx, `
		INSERT INTO source (name, version, table_name, infra_type, field_mapping, owner, description, config)
		VALUES ($1, $2, $3, $4, $5, 'tests', 'fixture', $6)`,
		name, version, tableName, infraType, fieldMapping, config)
}

// InsertFeature stores a feature row and returns its id.
func InsertFeature(t *testing.T, ctx context.Context, f FeatureFixture) int64 {
	t.Helper()

	scope, ok := database.GetScope(ctx)
	if !ok {
		t.Fatal("InsertFeature requires a scoped context")
	}

	ttl := f.TTL
	if ttl == nil {
		zero := "0"
		ttl = &zero
	}
	status := f.Status
	if status == nil {
		todo := "todo"
		status = &todo
	}

	var id int64
	err := scope.Conn.QueryRow(ctx, `
		INSERT INTO feature (name, version, source, entity, event_timestamp_field,
			start_event_datetime, end_event_datetime, ttl, "schema", sink, transform,
			description, owner, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		f.Name, f.Version, f.Source, f.Entity, f.EventTimestampField,
		f.Start, f.End, ttl, f.Schema, f.Sink, f.Transform,
		f.Description, f.Owner, status,
	).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert feature %s:%s: %v", f.Name, f.Version, err)
	}
	return id
}

func exec(t *testing.T, ctx context.Context, sql string, args ...any) {
	t.Helper()
	scope, ok := database.GetScope(ctx)
	if !ok {
		t.Fatal("fixture insert requires a scoped context")
	}
	if _, err := scope.Conn.Exec(ctx, sql, args...); err != nil {
		t.Fatalf("fixture insert failed: %v", err)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
