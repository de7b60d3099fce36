package locker

import (
	"context"
	"errors"
)

// Locker acquires an exclusive lease on a key. The returned function
// releases it and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var (
	ErrLockTimeout = errors.New("lock was not acquired before the context ended")
	ErrEmptyKey    = errors.New("lock key is empty")
)
