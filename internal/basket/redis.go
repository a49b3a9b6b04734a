package basket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "basket:"

// RedisStore shares baskets across instances. Expiry is Redis' own key TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, code string, b Basket, ttl time.Duration) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+code, raw, ttl).Err()
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, code string, b Basket, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, redisKeyPrefix+code, raw, ttl).Result()
}

func (s *RedisStore) Get(ctx context.Context, code string) (Basket, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return Basket{}, ErrNotFound
	}
	if err != nil {
		return Basket{}, err
	}
	var b Basket
	if err := json.Unmarshal(raw, &b); err != nil {
		return Basket{}, fmt.Errorf("decode basket %s: %w", code, err)
	}
	return b, nil
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	return s.client.Del(ctx, redisKeyPrefix+code).Err()
}
