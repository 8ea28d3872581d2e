package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token, so an
// expired lock that was re-acquired by another instance is left alone.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Redis is a distributed Locker shared by every instance pointed at the
// same Redis database.  Each key is a plain string set with NX and a TTL;
// the TTL bounds how long a crashed holder can block others.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedis returns a Redis-backed locker.  ttl is the lease of each key
// and retry the polling interval while waiting.
func NewRedis(rdb *redis.Client, prefix string, ttl, retry time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	if prefix == "" {
		prefix = "lock"
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl, retry: retry}
}

func (r *Redis) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := r.acquire(ctx, r.key(k), token); err != nil {
			r.releaseAll(held, token)
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		held = append(held, r.key(k))
	}
	var once sync.Once
	return func() { once.Do(func() { r.releaseAll(held, token) }) }, nil
}

func (r *Redis) key(k string) string { return r.prefix + ":" + k }

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	t := time.NewTicker(r.retry)
	defer t.Stop()
	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-t.C:
		}
	}
}

func (r *Redis) releaseAll(keys []string, token string) {
	// release must not depend on the caller's (possibly expired) context
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		_ = releaseScript.Run(ctx, r.rdb, []string{keys[i]}, token).Err()
	}
}
