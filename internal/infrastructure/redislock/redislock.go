// Package redislock implements store.Locker on Redis so several API
// processes can serialize captures and cancels of the same order.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

// releaseIfOwner deletes the key only while it still carries our token, so an
// expired lock taken over by another holder is left alone.
const releaseIfOwner = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`

const (
	defaultTTL     = 10 * time.Second
	defaultRetry   = 25 * time.Millisecond
	releaseTimeout = 2 * time.Second
	keyPrefix      = "lock:"
)

// ErrNotAcquired is returned when ctx ends before the lock frees up.
var ErrNotAcquired = errors.New("redislock: lock not acquired")

type client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type Locker struct {
	rdb    client
	ttl    time.Duration
	retry  time.Duration
	logger observability.Logger
}

type Option func(*Locker)

// WithTTL bounds how long a crashed holder can block others.
func WithTTL(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.ttl = d
		}
	}
}

func WithRetry(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.retry = d
		}
	}
}

func WithLogger(logger observability.Logger) Option {
	return func(l *Locker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(rdb client, opts ...Option) *Locker {
	l := &Locker{
		rdb:    rdb,
		ttl:    defaultTTL,
		retry:  defaultRetry,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewClient opens a go-redis client for addr.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Lock polls SET NX PX until it wins or ctx ends.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrNotAcquired, ctx.Err())
			}
			return nil, fmt.Errorf("redislock: set %s: %w", redisKey, err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlocker(redisKey, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := l.rdb.Eval(ctx, releaseIfOwner, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn("lock_release_failed",
				observability.F("lock_key", redisKey),
				observability.F("error", err),
			)
		}
	}
}
