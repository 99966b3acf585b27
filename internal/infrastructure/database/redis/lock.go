package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "lock is held by another owner")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Lock is a single-owner lease on a named resource. The worker takes one per
// screening job id so redelivered messages are not screened twice.
type Lock struct {
	rdb   redis.UniversalClient
	key   string
	value string
	ttl   time.Duration
}

// NewLock prepares a lease on name; nothing is acquired until TryLock.
func (c *Client) NewLock(name string, ttl time.Duration) *Lock {
	return &Lock{
		rdb:   c.rdb,
		key:   c.cfg.KeyPrefix + "lock:" + name,
		value: uuid.NewString(),
		ttl:   ttl,
	}
}

// Acquire takes the named lease and returns its release function, or
// ErrLockNotAcquired when another owner holds it.
func (c *Client) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	l := c.NewLock(name, ttl)
	if err := l.TryLock(ctx); err != nil {
		return nil, err
	}
	return l.Unlock, nil
}

// TryLock acquires the lease without waiting.
func (l *Lock) TryLock(ctx context.Context) error {
	ok, err := l.rdb.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	if !ok {
		return ErrLockNotAcquired
	}
	return nil
}

// Unlock releases the lease if this owner still holds it.
func (l *Lock) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, l.rdb, []string{l.key}, l.value).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

//Personal.AI order the ending
