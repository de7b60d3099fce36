package session

import "errors"

var (
	ErrMissingToken  = errors.New("session token is missing")
	ErrInvalidToken  = errors.New("session token is invalid")
	ErrMissingClaims = errors.New("session token lacks tenant claims")
	ErrMissingSecret = errors.New("session signing secret is not configured")
)
