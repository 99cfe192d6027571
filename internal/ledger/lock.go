package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// UnlockFunc releases a lock obtained from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker grants exclusive access to a scenario. Lock blocks until the lock
// is held or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

// LocalLocker is an in-process Locker with one lock per key.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

// Lock acquires the key's lock or returns ctx's error.
func (l *LocalLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	s := l.slot(key)
	select {
	case s <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-s })
		return nil
	}, nil
}

// RedisLocker is a Locker shared by every instance pointed at the same Redis.
type RedisLocker struct {
	client  *redislock.Client
	prefix  string
	ttl     time.Duration
	backoff time.Duration
}

// DefaultLockTTL bounds how long a crashed holder can block a scenario.
const DefaultLockTTL = 30 * time.Second

const defaultLockBackoff = 25 * time.Millisecond

// NewRedisLocker creates a locker over client. Keys are namespaced with
// prefix; ttl falls back to DefaultLockTTL when zero.
func NewRedisLocker(client redislock.RedisClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{
		client:  redislock.New(client),
		prefix:  prefix,
		ttl:     ttl,
		backoff: defaultLockBackoff,
	}
}

// Lock retries until the lock is obtained or ctx is done. A ctx without a
// deadline waits at most one ttl.
func (l *RedisLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	lock, err := l.client.Obtain(ctx, l.prefix+"lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.backoff),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("lock %q is held elsewhere: %w", key, err)
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}
