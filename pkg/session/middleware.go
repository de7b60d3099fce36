package session

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/saasadmin/pkg/tenant"
)

// ErrorHandler writes the response for a request that failed resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	onError ErrorHandler
	logger  *slog.Logger
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler replaces the default plain-text 401 response.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if h != nil {
			c.onError = h
		}
	}
}

func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware resolves the session identity and stores it in the request context.
// Authenticated responses are marked Cache-Control: no-store.
func Middleware(resolver Resolver, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("session: resolver is required")
	}

	cfg := &middlewareConfig{
		onError: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r)
			if err != nil {
				cfg.logger.DebugContext(r.Context(), "session rejected",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
				cfg.onError(w, r, err)
				return
			}

			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r.WithContext(tenant.WithIdentity(r.Context(), id)))
		})
	}
}
