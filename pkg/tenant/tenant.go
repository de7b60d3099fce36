// Package tenant carries the identity of the acting tenant through a request.
//
// An Identity is produced by session resolution and stored in the request
// context. Everything that scopes data or provider calls to a tenant reads it
// from the context; it is never taken from request input.
package tenant

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/saasadmin/pkg/logger"
)

// Identity describes the authenticated caller.
type Identity struct {
	TenantID   string
	TenantName string
	UserID     string
	Email      string
}

type contextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx.
func FromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}

// IDFromContext returns the tenant id, or false when there is no identity
// or it has no tenant id.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := FromContext(ctx)
	if !ok || id.TenantID == "" {
		return "", false
	}
	return id.TenantID, true
}

// MustFromContext panics when no identity is present.
// Only for handlers mounted behind the session middleware.
func MustFromContext(ctx context.Context) *Identity {
	id, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoTenantInContext)
	}
	return id
}

// LoggerExtractor adds "tenant_id" to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return logger.TenantID(id), true
		}
		return slog.Attr{}, false
	}
}
