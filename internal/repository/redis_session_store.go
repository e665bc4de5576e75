package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps one hash per session under "<prefix>:<sid>".  The
// hash expiry is pushed forward on every write so idle sessions age out.
type RedisSessionStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = "portal:session"
	}
	return &RedisSessionStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisSessionStore) key(sid string) string { return s.prefix + ":" + sid }

// Get fetches one field of the session hash.
func (s *RedisSessionStore) Get(ctx context.Context, sid, key string) (string, error) {
	v, err := s.rdb.HGet(ctx, s.key(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

// Set writes the field and refreshes the hash TTL in one transaction.
func (s *RedisSessionStore) Set(ctx context.Context, sid, key, value string) error {
	k := s.key(sid)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	return err
}

// Delete removes the fields with a single HDEL.
func (s *RedisSessionStore) Delete(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.HDel(ctx, s.key(sid), keys...).Err()
}
