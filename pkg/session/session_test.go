package session_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/saasadmin/pkg/session"
	"github.com/dmitrymomot/saasadmin/pkg/tenant"
)

const testSecret = "test-session-secret"

func newResolver(t *testing.T) *session.JWTResolver {
	t.Helper()
	r, err := session.NewJWTResolver(session.Config{Secret: testSecret, CookieName: "session"})
	require.NoError(t, err)
	return r
}

func TestNewJWTResolver_RequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := session.NewJWTResolver(session.Config{})
	assert.ErrorIs(t, err, session.ErrMissingSecret)
}

func TestJWTResolver_Resolve(t *testing.T) {
	t.Parallel()

	resolver := newResolver(t)
	identity := tenant.Identity{TenantID: "t1", TenantName: "Acme", UserID: "u1", Email: "owner@acme.test"}

	t.Run("bearer token", func(t *testing.T) {
		t.Parallel()
		token, err := resolver.Issue(identity, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		got, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, identity, *got)
	})

	t.Run("cookie token", func(t *testing.T) {
		t.Parallel()
		token, err := resolver.Issue(identity, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})

		got, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "t1", got.TenantID)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		_, err := resolver.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, session.ErrMissingToken)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		token, err := resolver.Issue(identity, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, err = resolver.Resolve(req)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		t.Parallel()
		other, err := session.NewJWTResolver(session.Config{Secret: "another-secret"})
		require.NoError(t, err)
		token, err := other.Issue(identity, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, err = resolver.Resolve(req)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("token without tenant", func(t *testing.T) {
		t.Parallel()
		claims := jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		_, err = resolver.Resolve(req)
		assert.ErrorIs(t, err, session.ErrMissingClaims)
	})
}

type staticResolver struct {
	id  *tenant.Identity
	err error
}

func (s staticResolver) Resolve(*http.Request) (*tenant.Identity, error) { return s.id, s.err }

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("stores identity and disables caching", func(t *testing.T) {
		t.Parallel()
		mw := session.Middleware(staticResolver{id: &tenant.Identity{TenantID: "t1"}})
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := tenant.IDFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, "t1", id)
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("rejects unresolved requests", func(t *testing.T) {
		t.Parallel()
		mw := session.Middleware(staticResolver{err: session.ErrMissingToken})
		h := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("next must not be called")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("custom error handler", func(t *testing.T) {
		t.Parallel()
		var got error
		mw := session.Middleware(
			staticResolver{err: session.ErrInvalidToken},
			session.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusTeapot)
			}),
		)

		rec := httptest.NewRecorder()
		mw(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.True(t, errors.Is(got, session.ErrInvalidToken))
	})
}
