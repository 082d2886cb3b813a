package replayguard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "paystell:replay"

// RedisStore keeps the set of hashes in Redis so that several daemon
// instances share it. Each hash is a key created with SETNX, and a list
// records insertion order for FIFO eviction.
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	capacity int64
}

// NewRedisStore returns a store bounded to capacity hashes. An empty prefix
// falls back to the default one.
func NewRedisStore(
	client redis.UniversalClient, prefix string, capacity int,
) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("missing redis client")
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client, prefix, int64(capacity)}, nil
}

func (s *RedisStore) Add(ctx context.Context, hash string) (bool, error) {
	added, err := s.client.SetNX(ctx, s.hashKey(hash), 1, 0).Result()
	if err != nil {
		return false, err
	}
	if !added {
		return false, nil
	}

	var length *redis.IntCmd
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.orderKey(), hash)
		length = pipe.LLen(ctx, s.orderKey())
		return nil
	}); err != nil {
		return true, err
	}

	for n := length.Val(); n > s.capacity; n-- {
		oldest, err := s.client.LPop(ctx, s.orderKey()).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return true, err
		}
		if err := s.client.Del(ctx, s.hashKey(oldest)).Err(); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *RedisStore) Contains(ctx context.Context, hash string) (bool, error) {
	n, err := s.client.Exists(ctx, s.hashKey(hash)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.orderKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *RedisStore) hashKey(hash string) string {
	return fmt.Sprintf("%s:tx:%s", s.prefix, hash)
}

func (s *RedisStore) orderKey() string {
	return fmt.Sprintf("%s:order", s.prefix)
}
