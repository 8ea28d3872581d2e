package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending requests in Redis with a TTL so confirmations
// survive a restart of one server replica and work across replicas.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "zq:confirm"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(token string) string { return s.prefix + ":" + token }

func (s *RedisStore) Put(ctx context.Context, p Pending, ttl time.Duration) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.SetEx(ctx, s.key(p.Token), body, ttl).Err()
}

// Take uses GETDEL so two concurrent confirmations of one token cannot
// both succeed.
func (s *RedisStore) Take(ctx context.Context, token string) (Pending, error) {
	body, err := s.rdb.GetDel(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Pending{}, ErrNotFound
	}
	if err != nil {
		return Pending{}, err
	}
	var p Pending
	if err := json.Unmarshal(body, &p); err != nil {
		return Pending{}, err
	}
	return p, nil
}
