package locker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease-based distributed lock.
type RedisLocker struct {
	client   redis.UniversalClient
	prefix   string
	ttl      time.Duration
	retryMin time.Duration
	retryMax time.Duration
	logger   *slog.Logger
}

// RedisOption configures RedisLocker.
type RedisOption func(*RedisLocker)

// WithTTL sets the lease duration. It must exceed the longest critical region.
func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryInterval sets the polling backoff bounds.
func WithRetryInterval(lo, hi time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if lo > 0 && hi >= lo {
			l.retryMin, l.retryMax = lo, hi
		}
	}
}

func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) { l.prefix = prefix }
}

func WithLogger(logger *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	if client == nil {
		panic("locker: redis client is required")
	}

	l := &RedisLocker{
		client:   client,
		prefix:   "lock:",
		ttl:      30 * time.Second,
		retryMin: 25 * time.Millisecond,
		retryMax: 500 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	fullKey := l.prefix + key
	token := uuid.NewString()
	wait := l.retryMin

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("acquire lock %q: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockTimeout, ctx.Err())
		case <-time.After(wait):
		}
		wait = min(wait*2, l.retryMax)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled; the lease must still go.
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()

			if err := releaseScript.Run(rctx, l.client, []string{fullKey}, token).Err(); err != nil {
				l.logger.WarnContext(ctx, "failed to release lock",
					slog.String("key", fullKey),
					slog.Any("error", err),
				)
			}
		})
	}, nil
}
