package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockAcquire is returned when the lock cannot be acquired before ctx is
// done.
var ErrLockAcquire = errors.New("checkpoint: failed to acquire distributed lock")

// UnlockFunc releases a previously acquired lock.
type UnlockFunc func(ctx context.Context) error

// Locker serializes concurrent resumes of the same thread across engine
// processes sharing a Redis checkpoint store. This is an opt-in
// convenience the engine itself does not require — see SPEC_FULL.md §5 on
// why cross-process coordination is not an engine-intrinsic guarantee.
// Grounded on the teacher's pkg/adapters/redis.Locker (SET NX + Lua-script
// unlock).
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker builds a Locker sharing client with a checkpoint Store.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Lock blocks (polling) until it acquires the lock for key or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("checkpoint: lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				const script = `
					if redis.call("get", KEYS[1]) == ARGV[1] then
						return redis.call("del", KEYS[1])
					else
						return 0
					end
				`
				return l.client.Eval(ctx, script, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockAcquire, ctx.Err())
		case <-ticker.C:
		}
	}
}
