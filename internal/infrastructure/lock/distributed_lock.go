package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrLockFailed = errors.New("failed to acquire distributed lock")

// DistributedLock is a redis SET NX EX lock. The value identifies the holder
// so Unlock cannot release a lock that expired and was re-acquired by
// someone else.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock attempts a single non-blocking acquire.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock retries TryLock until it succeeds or maxRetries is exhausted.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock releases the lock only if this holder still owns it. The check and
// delete must be one atomic step, hence the Lua script.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// Locker serializes payment confirmations per order. Services depend on this
// interface; tests substitute an in-process implementation.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

type redisLocker struct {
	client     *redis.Client
	expiration time.Duration
}

func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client, expiration: 30 * time.Second}
}

func (r *redisLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	l := NewDistributedLock(r.client, key, fmt.Sprintf("%d", time.Now().UnixNano()), r.expiration)
	if err := l.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return err
	}
	defer l.Unlock(ctx)
	return fn()
}

// OrderLockKey scopes the lock to one order: concurrent gateway callbacks for
// different orders never contend.
func OrderLockKey(orderID string) string {
	return fmt.Sprintf("payment:lock:order:%s", orderID)
}
