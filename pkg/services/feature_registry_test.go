package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/ekaya-inc/ekaya-features/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-features/pkg/models"
	"github.com/ekaya-inc/ekaya-features/pkg/testhelpers"
)

type featureRegistryFixture struct {
	scopes   *fakeScopes
	entities *mockEntityRepo
	sources  *mockSourceRepo
	features *mockFeatureRepo
	registry FeatureRegistry
}

func newFeatureRegistryFixture(logger *zap.Logger, row *models.FeatureRow) *featureRegistryFixture {
	f := &featureRegistryFixture{
		scopes:   &fakeScopes{},
		entities: newMockEntityRepo(&models.EntityRow{Name: "user", JoinKeys: `["user_id"]`}),
		sources:  newMockSourceRepo(clicksSourceRow()),
		features: &mockFeatureRepo{row: row},
	}
	f.registry = NewFeatureRegistry(
		f.scopes,
		f.features,
		NewEntityRegistry(f.scopes, f.entities, logger),
		NewSourceRegistry(f.scopes, f.sources, logger),
		noopTracer(),
		logger,
	)
	return f
}

func clickCountRow() *models.FeatureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	return &models.FeatureRow{
		ID:                  7,
		Name:                "click_count",
		Version:             "1",
		Source:              `{"name": "clicks", "version": "1"}`,
		Entity:              `{"name": "user"}`,
		EventTimestampField: testhelpers.Ptr("clicked_at"),
		StartEventDatetime:  &start,
		EndEventDatetime:    &end,
		TTL:                 testhelpers.Ptr("86400"),
		Schema:              testhelpers.Ptr(`{"user_id": "int64", "click_count": "int64"}`),
		Sink:                testhelpers.Ptr(`{"format": "parquet", "path": "/out/click_count"}`),
		Transform:           testhelpers.Ptr("SELECT user_id, count(*) AS click_count FROM source_table GROUP BY user_id"),
		Description:         testhelpers.Ptr("clicks per user"),
		Owner:               testhelpers.Ptr("growth"),
		Status:              testhelpers.Ptr("active"),
	}
}

func TestFeatureRegistry_Resolve(t *testing.T) {
	row := clickCountRow()
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), row)

	req, err := models.NewFeatureRequest("click_count", "1", "", "")
	require.NoError(t, err)

	feature, err := f.registry.Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "click_count", feature.Name)
	assert.Equal(t, "1", feature.Version)
	assert.Equal(t, models.Entity{Name: "user", JoinKeys: []string{"user_id"}}, feature.Entity)
	assert.Equal(t, "clicks", feature.Source.Name)
	assert.Equal(t, "/data/clicks", feature.Source.Config["path"])
	assert.Equal(t, "clicked_at", feature.EventTimestampField)
	assert.Equal(t, row.StartEventDatetime, feature.ValidityStart)
	assert.Equal(t, row.EndEventDatetime, feature.ValidityEnd)
	assert.Equal(t, 86400, feature.TTL)
	assert.Equal(t, map[string]string{"user_id": "int64", "click_count": "int64"}, feature.Schema)
	assert.Equal(t, map[string]string{"format": "parquet", "path": "/out/click_count"}, feature.Sink)
	assert.Equal(t, models.FeatureStatusActive, feature.Status)

	assert.Nil(t, f.features.lastWindow)
	assert.Equal(t, 1, f.scopes.acquired, "entity and source lookups share one connection")
	assert.True(t, f.scopes.balanced())
}

func TestFeatureRegistry_Resolve_PassesWindow(t *testing.T) {
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), clickCountRow())

	_, err := f.registry.ResolveRef(context.Background(), map[string]string{
		"name":                 "click_count",
		"version":              "1",
		"start_event_datetime": "2024-01-01",
		"end_event_datetime":   "2024-01-31 23:59:59",
	})
	require.NoError(t, err)
	require.NotNil(t, f.features.lastWindow)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), f.features.lastWindow.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), f.features.lastWindow.End)
}

func TestFeatureRegistry_Resolve_RejectsRowOutsideWindow(t *testing.T) {
	// A January row offered for a February request is never returned.
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), clickCountRow())

	_, err := f.registry.ResolveRef(context.Background(), map[string]string{
		"name":                 "click_count",
		"version":              "1",
		"start_event_datetime": "2024-02-01",
		"end_event_datetime":   "2024-02-29",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.False(t, errors.Is(err, apperrors.ErrReference))
	assert.True(t, f.scopes.balanced())
}

func TestFeatureRegistry_Resolve_OneSidedWindowIgnored(t *testing.T) {
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), clickCountRow())

	_, err := f.registry.ResolveRef(context.Background(), map[string]string{
		"name":                 "click_count",
		"version":              "1",
		"start_event_datetime": "2024-01-01",
	})
	require.NoError(t, err)
	assert.Nil(t, f.features.lastWindow)
}

func TestFeatureRegistry_Resolve_InvalidRequest(t *testing.T) {
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), clickCountRow())

	_, err := f.registry.ResolveRef(context.Background(), map[string]string{"name": "click_count"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	_, err = f.registry.ResolveRef(context.Background(), map[string]string{
		"name": "click_count", "version": "1",
		"start_event_datetime": "last tuesday", "end_event_datetime": "2024-01-31",
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
	assert.Zero(t, f.scopes.acquired)
}

func TestFeatureRegistry_Resolve_NotFound(t *testing.T) {
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), clickCountRow())

	_, err := f.registry.Resolve(context.Background(), models.FeatureRequest{Name: "click_count", Version: "2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.False(t, errors.Is(err, apperrors.ErrReference))
	assert.True(t, f.scopes.balanced())
}

func TestFeatureRegistry_Resolve_ReferenceErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(f *featureRegistryFixture, row *models.FeatureRow)
		kind      string
		wantCause error
	}{
		{
			name:      "missing entity",
			mutate:    func(_ *featureRegistryFixture, row *models.FeatureRow) { row.Entity = `{"name": "merchant"}` },
			kind:      "entity",
			wantCause: apperrors.ErrNotFound,
		},
		{
			name:      "missing source version",
			mutate:    func(_ *featureRegistryFixture, row *models.FeatureRow) { row.Source = `{"name": "clicks", "version": "3"}` },
			kind:      "source",
			wantCause: apperrors.ErrNotFound,
		},
		{
			name: "entity with corrupt join keys",
			mutate: func(f *featureRegistryFixture, _ *models.FeatureRow) {
				f.entities.rows["user"] = &models.EntityRow{Name: "user", JoinKeys: `not json`}
			},
			kind:      "entity",
			wantCause: apperrors.ErrDecode,
		},
		{
			name: "source with corrupt config",
			mutate: func(f *featureRegistryFixture, _ *models.FeatureRow) {
				row := clicksSourceRow()
				row.Config = testhelpers.Ptr(`{`)
				f.sources.rows["clicks:1"] = row
			},
			kind:      "source",
			wantCause: apperrors.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := clickCountRow()
			f := newFeatureRegistryFixture(zaptest.NewLogger(t), row)
			tt.mutate(f, row)

			_, err := f.registry.Resolve(context.Background(), models.FeatureRequest{Name: "click_count", Version: "1"})
			require.Error(t, err)

			var refErr *apperrors.ReferenceError
			require.True(t, errors.As(err, &refErr), "got %v", err)
			assert.Equal(t, tt.kind, refErr.Kind)
			assert.True(t, errors.Is(err, tt.wantCause))
			assert.True(t, f.scopes.balanced())
		})
	}
}

func TestFeatureRegistry_Resolve_StoreErrorIsNotReference(t *testing.T) {
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), clickCountRow())
	f.entities.err = errors.New("connection reset by peer")

	_, err := f.registry.Resolve(context.Background(), models.FeatureRequest{Name: "click_count", Version: "1"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrReference))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFeatureRegistry_Resolve_DecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(row *models.FeatureRow)
		field  string
	}{
		{"entity ref not json", func(r *models.FeatureRow) { r.Entity = `user` }, "feature.entity"},
		{"entity ref without name", func(r *models.FeatureRow) { r.Entity = `{"id": 1}` }, "feature.entity"},
		{"source ref without version", func(r *models.FeatureRow) { r.Source = `{"name": "clicks"}` }, "feature.source"},
		{"ttl not a number", func(r *models.FeatureRow) { r.TTL = testhelpers.Ptr("1d") }, "feature.ttl"},
		{"negative ttl", func(r *models.FeatureRow) { r.TTL = testhelpers.Ptr("-5") }, "feature.ttl"},
		{"schema not an object", func(r *models.FeatureRow) { r.Schema = testhelpers.Ptr(`[1]`) }, "feature.schema"},
		{"sink malformed", func(r *models.FeatureRow) { r.Sink = testhelpers.Ptr(`{"format"`) }, "feature.sink"},
		{"blank transform", func(r *models.FeatureRow) { r.Transform = testhelpers.Ptr("  \n") }, "feature.transform"},
		{"null transform", func(r *models.FeatureRow) { r.Transform = nil }, "feature.transform"},
		{"start after end", func(r *models.FeatureRow) {
			start := r.EndEventDatetime.Add(time.Hour)
			r.StartEventDatetime = &start
		}, "feature.validity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := clickCountRow()
			tt.mutate(row)
			f := newFeatureRegistryFixture(zaptest.NewLogger(t), row)

			_, err := f.registry.Resolve(context.Background(), models.FeatureRequest{Name: "click_count", Version: "1"})
			require.Error(t, err)

			var decodeErr *apperrors.DecodeError
			require.True(t, errors.As(err, &decodeErr), "got %v", err)
			assert.Equal(t, tt.field, decodeErr.Field)
			assert.False(t, errors.Is(err, apperrors.ErrReference))
			assert.True(t, f.scopes.balanced())
		})
	}
}

func TestFeatureRegistry_Resolve_Defaults(t *testing.T) {
	row := clickCountRow()
	row.TTL = nil
	row.Schema = nil
	row.Sink = nil
	row.Status = nil
	row.StartEventDatetime = nil
	row.EndEventDatetime = nil
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), row)

	feature, err := f.registry.Resolve(context.Background(), models.FeatureRequest{Name: "click_count", Version: "1"})
	require.NoError(t, err)
	assert.Zero(t, feature.TTL)
	assert.Empty(t, feature.Schema)
	assert.Empty(t, feature.Sink)
	assert.Equal(t, models.FeatureStatusTodo, feature.Status)
	assert.Nil(t, feature.ValidityStart)
	assert.Nil(t, feature.ValidityEnd)
}

func TestFeatureRegistry_Resolve_UnknownStatusCarried(t *testing.T) {
	row := clickCountRow()
	row.Status = testhelpers.Ptr("retired")
	f := newFeatureRegistryFixture(zaptest.NewLogger(t), row)

	feature, err := f.registry.Resolve(context.Background(), models.FeatureRequest{Name: "click_count", Version: "1"})
	require.NoError(t, err)
	assert.Equal(t, models.FeatureStatus("retired"), feature.Status)
}

// Resolving the same request against an unchanged store yields identical features.
func TestFeatureRegistry_Resolve_Deterministic(t *testing.T) {
	logger := zap.NewNop()

	rapid.Check(t, func(rt *rapid.T) {
		row := clickCountRow()
		row.TTL = testhelpers.Ptr(fmt.Sprint(rapid.IntRange(0, 1<<30).Draw(rt, "ttl")))
		keys := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z_]{1,8}`), rapid.ID[string]).Draw(rt, "schema_keys")
		schema := "{"
		for i, k := range keys {
			if i > 0 {
				schema += ","
			}
			schema += fmt.Sprintf("%q: %q", k, "int64")
		}
		row.Schema = testhelpers.Ptr(schema + "}")
		offset := rapid.Int64Range(0, 1<<32).Draw(rt, "start_offset")
		start := time.Unix(offset, 0).UTC()
		end := start.Add(time.Duration(rapid.IntRange(0, 1<<20).Draw(rt, "length")) * time.Second)
		row.StartEventDatetime, row.EndEventDatetime = &start, &end

		f := newFeatureRegistryFixture(logger, row)
		req := models.FeatureRequest{Name: "click_count", Version: "1"}

		first, err := f.registry.Resolve(context.Background(), req)
		if err != nil {
			rt.Fatalf("first resolve: %v", err)
		}
		second, err := f.registry.Resolve(context.Background(), req)
		if err != nil {
			rt.Fatalf("second resolve: %v", err)
		}

		assert.Equal(rt, first, second)
		assert.Len(rt, first.Schema, len(keys))
		if !f.scopes.balanced() {
			rt.Fatalf("scope leak: acquired %d released %d", f.scopes.acquired, f.scopes.released)
		}
	})
}
