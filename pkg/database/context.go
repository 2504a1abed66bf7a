package database

import (
	"context"
)

type contextKey string

// ScopeKey is the context key for the scoped registry connection.
const ScopeKey contextKey = "registryScope"

// GetScope retrieves the scoped registry connection from context.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok && scope != nil
}

// SetScope stores the scoped registry connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}
