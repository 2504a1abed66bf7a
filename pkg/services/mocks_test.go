package services

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ekaya-inc/ekaya-features/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-features/pkg/database"
	"github.com/ekaya-inc/ekaya-features/pkg/engine"
	"github.com/ekaya-inc/ekaya-features/pkg/models"
)

func noopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

// ============================================================================
// Scope provider
// ============================================================================

// fakeScopes behaves like the pool provider: nested calls reuse the scope in ctx.
type fakeScopes struct {
	mu       sync.Mutex
	acquired int
	released int
	err      error
}

func (f *fakeScopes) WithScope(ctx context.Context) (context.Context, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if _, ok := database.GetScope(ctx); ok {
		return ctx, func() {}, nil
	}
	f.mu.Lock()
	f.acquired++
	f.mu.Unlock()
	return database.SetScope(ctx, database.NewScope(nil)), func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}, nil
}

func (f *fakeScopes) balanced() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired == f.released
}

// ============================================================================
// Repositories
// ============================================================================

type mockEntityRepo struct {
	rows  map[string]*models.EntityRow
	err   error
	calls int
}

func newMockEntityRepo(rows ...*models.EntityRow) *mockEntityRepo {
	m := &mockEntityRepo{rows: make(map[string]*models.EntityRow)}
	for _, r := range rows {
		m.rows[r.Name] = r
	}
	return m
}

func (m *mockEntityRepo) GetByName(ctx context.Context, name string) (*models.EntityRow, error) {
	m.calls++
	if _, ok := database.GetScope(ctx); !ok {
		return nil, database.ErrNoScope
	}
	if m.err != nil {
		return nil, m.err
	}
	row, ok := m.rows[name]
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", name, apperrors.ErrNotFound)
	}
	return row, nil
}

type mockSourceRepo struct {
	rows map[string]*models.SourceRow
	err  error
}

func newMockSourceRepo(rows ...*models.SourceRow) *mockSourceRepo {
	m := &mockSourceRepo{rows: make(map[string]*models.SourceRow)}
	for _, r := range rows {
		m.rows[r.Name+":"+r.Version] = r
	}
	return m
}

func (m *mockSourceRepo) Get(ctx context.Context, name, version string) (*models.SourceRow, error) {
	if _, ok := database.GetScope(ctx); !ok {
		return nil, database.ErrNoScope
	}
	if m.err != nil {
		return nil, m.err
	}
	row, ok := m.rows[name+":"+version]
	if !ok {
		return nil, fmt.Errorf("source %s:%s: %w", name, version, apperrors.ErrNotFound)
	}
	return row, nil
}

type mockFeatureRepo struct {
	row        *models.FeatureRow
	err        error
	lastWindow *models.TimeRange
	lastName   string
}

func (m *mockFeatureRepo) FindLatest(ctx context.Context, name, version string, window *models.TimeRange) (*models.FeatureRow, error) {
	if _, ok := database.GetScope(ctx); !ok {
		return nil, database.ErrNoScope
	}
	m.lastName = name
	m.lastWindow = window
	if m.err != nil {
		return nil, m.err
	}
	if m.row == nil || m.row.Name != name || m.row.Version != version {
		return nil, fmt.Errorf("feature %s:%s: %w", name, version, apperrors.ErrNotFound)
	}
	return m.row, nil
}

// ============================================================================
// Engine
// ============================================================================

type mockEngine struct {
	sessions []*mockSession
	newErr   error
	loadErr  error
	transErr error
	writeErr error
	closeErr error
	rows     int64
}

func (m *mockEngine) NewSession(ctx context.Context) (engine.Session, error) {
	if m.newErr != nil {
		return nil, m.newErr
	}
	s := &mockSession{engine: m, id: fmt.Sprintf("session-%d", len(m.sessions)+1)}
	m.sessions = append(m.sessions, s)
	return s, nil
}

func (m *mockEngine) Close() error { return nil }

type mockSession struct {
	engine    *mockEngine
	id        string
	steps     []string
	loaded    *models.Source
	query     string
	target    models.SinkTarget
	closeCall int
}

func (s *mockSession) ID() string { return s.id }

func (s *mockSession) LoadSource(ctx context.Context, source *models.Source) error {
	s.steps = append(s.steps, "load")
	s.loaded = source
	return s.engine.loadErr
}

func (s *mockSession) Transform(ctx context.Context, query string) (int64, error) {
	s.steps = append(s.steps, "transform")
	s.query = query
	if s.engine.transErr != nil {
		return 0, s.engine.transErr
	}
	return s.engine.rows, nil
}

func (s *mockSession) Write(ctx context.Context, target models.SinkTarget) error {
	s.steps = append(s.steps, "write")
	s.target = target
	return s.engine.writeErr
}

func (s *mockSession) Close() error {
	s.closeCall++
	return s.engine.closeErr
}
