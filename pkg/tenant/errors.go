package tenant

import "errors"

// ErrNoTenantInContext is returned when a tenant-scoped operation runs without an identity.
var ErrNoTenantInContext = errors.New("no tenant in context")
