package redis

import (
	"context"
	"math/rand"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// Cache stores JSON encoded search results under a key prefix.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// GetOrSet reads key into dest, running loader once per key across
	// concurrent callers on a miss and storing its result.
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(context.Context) (interface{}, error)) error
}

type CacheOption func(*redisCache)

// WithPrefix overrides the key prefix taken from the client config.
func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

// WithTTLJitter spreads expirations by up to fraction of the TTL.
func WithTTLJitter(fraction float64) CacheOption {
	return func(c *redisCache) { c.jitter = fraction }
}

type redisCache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	jitter float64
	group  singleflight.Group
	logger logging.Logger
}

// NewRedisCache builds a Cache on top of client.
func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	c := &redisCache{
		rdb:    client.rdb,
		prefix: client.cfg.KeyPrefix,
		ttl:    client.cfg.DefaultTTL,
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) key(k string) string {
	return c.prefix + k
}

func (c *redisCache) expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if c.jitter > 0 {
		ttl += time.Duration(rand.Float64() * c.jitter * float64(ttl))
	}
	return ttl
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache get failed").WithDetail("key=" + key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache value is not valid JSON").WithDetail("key=" + key)
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache value cannot be encoded").WithDetail("key=" + key)
	}
	return c.setRaw(ctx, key, data, ttl)
}

func (c *redisCache) setRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.key(key), data, c.expiry(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set failed").WithDetail("key=" + key)
	}
	return nil
}

func (c *redisCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if err != ErrCacheMiss {
		// read errors fall through to the loader
		c.logger.Warn("Cache read failed, loading directly", logging.String("key", key), logging.Err(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cache value cannot be encoded")
		}
		if err := c.setRaw(ctx, key, data, ttl); err != nil {
			c.logger.Warn("Cache write failed", logging.String("key", key), logging.Err(err))
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cache value cannot be decoded")
	}
	return nil
}

//Personal.AI order the ending
