// Package tenant carries the current tenant scope through context.Context.
//
// The scope is always passed explicitly: every request handler and every
// connection's background task derives its own context, so one operation's
// tenant can never leak into an unrelated concurrent one.
package tenant

import (
	"context"

	"github.com/elevatecrm/realtime/internal/domain"
)

type ctxKey struct{}

// NewContext returns a child context scoped to the given tenant id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the tenant id stored in ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// MustFromContext returns the tenant id or domain.ErrMissingTenant when the
// context carries none. Operations that require tenant scoping fail fast on
// this error instead of silently publishing unscoped.
func MustFromContext(ctx context.Context) (string, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return "", domain.ErrMissingTenant
	}
	return id, nil
}
