package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of a pooled connection used by repositories.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Scope holds one registry connection for the duration of an operation.
type Scope struct {
	Conn Querier

	release func()
}

// Close releases the connection to the pool. Safe to call more than once.
func (s *Scope) Close() {
	if s.release == nil {
		return
	}
	s.release()
	s.release = nil
}

// NewScope wraps an existing querier (a transaction in tests, for instance).
// Closing it does nothing.
func NewScope(q Querier) *Scope {
	return &Scope{Conn: q}
}

// Acquire takes a connection from the pool.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) Acquire(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Scope{Conn: conn, release: conn.Release}, nil
}

// ScopeProvider hands out connection-scoped contexts.
type ScopeProvider interface {
	// WithScope returns a context carrying a registry connection. If ctx already
	// carries one it is reused and the cleanup does nothing, so nested lookups
	// share the caller's connection. The cleanup must be called on every path.
	WithScope(ctx context.Context) (context.Context, func(), error)
}

type poolScopeProvider struct {
	db *DB
}

// NewScopeProvider creates a ScopeProvider backed by the pool.
func NewScopeProvider(db *DB) ScopeProvider {
	return &poolScopeProvider{db: db}
}

func (p *poolScopeProvider) WithScope(ctx context.Context) (context.Context, func(), error) {
	if _, ok := GetScope(ctx); ok {
		return ctx, func() {}, nil
	}
	scope, err := p.db.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return SetScope(ctx, scope), scope.Close, nil
}

// ErrNoScope is returned by repositories called without a scoped context.
var ErrNoScope = errors.New("no database scope in context")

var _ Querier = (*pgxpool.Conn)(nil)
