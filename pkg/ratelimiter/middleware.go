package ratelimiter

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/saasadmin/handler"
	"github.com/dmitrymomot/saasadmin/pkg/logger"
	"github.com/dmitrymomot/saasadmin/pkg/tenant"
)

// KeyFunc picks the bucket for a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// TenantKey buckets requests by the tenant in the request context.
func TenantKey(r *http.Request) string {
	id, ok := tenant.IDFromContext(r.Context())
	if !ok {
		return ""
	}
	return "tenant:" + id
}

var errRateLimited = handler.NewHTTPError(http.StatusTooManyRequests, "rate_limited").WithMessage("Too many requests")

// Middleware rejects requests once their bucket is empty. Store failures
// are logged and the request is let through.
func Middleware(b *Bucket, key KeyFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), k)
			if err != nil {
				log.WarnContext(r.Context(), "rate limit check failed", logger.Error(err), logger.Component("ratelimiter"))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				retry := res.RetryAfter(time.Now())
				h.Set("Retry-After", strconv.Itoa(max(int((retry+time.Second-1)/time.Second), 1)))
				_ = handler.JSONError(errRateLimited).Render(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
