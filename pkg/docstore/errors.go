package docstore

import "errors"

var (
	ErrUnavailable   = errors.New("datastore is not available")
	ErrNotFound      = errors.New("document not found")
	ErrDuplicateKey  = errors.New("document violates a unique constraint")
	ErrNoTenantScope = errors.New("tenant-scoped collection used without a tenant in context")
	ErrEmptyKey      = errors.New("document key is empty")
	ErrEncode        = errors.New("failed to encode document")
	ErrDecode        = errors.New("failed to decode document")
)
