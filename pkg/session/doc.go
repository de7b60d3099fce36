// Package session turns an incoming request into a tenant.Identity.
//
// Authentication itself (login, cookies, CSRF) lives in front of this service.
// What reaches it is an HS256 JWT minted by the auth layer, sent either as a
// bearer token or in the session cookie. JWTResolver validates it and maps
// the claims onto tenant.Identity; Middleware stores the identity in the
// request context and rejects requests without one.
package session
