// Package principal carries the authenticated caller through a request context.
package principal

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

var entityKey = contextKey{}

// Principal identifies who is making a request and in which session.
type Principal struct {
	UserID    uuid.UUID
	SessionID string
	Role      string
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, entityKey, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(entityKey).(*Principal)
	return p, ok && p != nil
}

// UserIDFromContext returns the caller's id or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if p, ok := FromContext(ctx); ok {
		return p.UserID
	}
	return uuid.Nil
}
