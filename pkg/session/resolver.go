package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/saasadmin/pkg/tenant"
)

// Config holds the session settings.
type Config struct {
	Secret     string `env:"SESSION_JWT_SECRET"`
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	Issuer     string `env:"SESSION_JWT_ISSUER"`
}

// Resolver resolves the identity of the caller.
type Resolver interface {
	Resolve(r *http.Request) (*tenant.Identity, error)
}

// Claims is the token payload issued by the auth layer.
type Claims struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// JWTResolver validates HS256 session tokens.
type JWTResolver struct {
	secret     []byte
	cookieName string
	parser     *jwt.Parser
}

// NewJWTResolver creates a resolver from cfg.
func NewJWTResolver(cfg Config) (*JWTResolver, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &JWTResolver{
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		parser:     jwt.NewParser(opts...),
	}, nil
}

func (j *JWTResolver) Resolve(r *http.Request) (*tenant.Identity, error) {
	raw := j.tokenFromRequest(r)
	if raw == "" {
		return nil, ErrMissingToken
	}

	var claims Claims
	_, err := j.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.TenantID == "" {
		return nil, ErrMissingClaims
	}

	return &tenant.Identity{
		TenantID:   claims.TenantID,
		TenantName: claims.TenantName,
		UserID:     claims.Subject,
		Email:      claims.Email,
	}, nil
}

// Issue signs a token for id that expires after ttl.
// The auth layer owns issuance in production; this is used by tests and local tooling.
func (j *JWTResolver) Issue(id tenant.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TenantID:   id.TenantID,
		TenantName: id.TenantName,
		Email:      id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (j *JWTResolver) tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if j.cookieName != "" {
		if c, err := r.Cookie(j.cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}
