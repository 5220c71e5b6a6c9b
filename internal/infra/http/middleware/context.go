// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"context"

	"github.com/planforge/api/pkg/domain/session"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	viewKey     contextKey = "view_context"
)

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, ident session.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFrom returns the authenticated identity, if any.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(session.Identity)
	return ident, ok
}

// WithViewContext stores the per-request view context.
func WithViewContext(ctx context.Context, view *session.ViewContext) context.Context {
	return context.WithValue(ctx, viewKey, view)
}

// ViewContextFrom returns the per-request view context, if any.
func ViewContextFrom(ctx context.Context) (*session.ViewContext, bool) {
	view, ok := ctx.Value(viewKey).(*session.ViewContext)
	return view, ok
}
