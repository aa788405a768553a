package session

import (
	"context"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "bmomtm:session:"

// RedisStore keeps one key per session and lets Redis expire it.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

var _ domain.SessionStore = (*RedisStore)(nil)

// NewRedisStore connects using a URL such as redis://:pass@host:6379/0 and
// pings the server before returning.
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedisStoreFromClient(rdb, prefix), nil
}

func NewRedisStoreFromClient(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(hash string) string { return s.prefix + hash }

func (s *RedisStore) Save(ctx context.Context, tokenHash string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key(tokenHash), "1", ttl).Err()
}

func (s *RedisStore) Exists(ctx context.Context, tokenHash string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(tokenHash)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, tokenHash string) error {
	return s.rdb.Del(ctx, s.key(tokenHash)).Err()
}

// DeleteAll removes every key under the store prefix.
func (s *RedisStore) DeleteAll(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
