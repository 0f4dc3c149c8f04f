package lockout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "lockout:"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps lockout state in Redis so the guard decision is shared
// across service instances. TTL handling is delegated to Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (State, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, errors.Wrap(err, "[RedisStore.Get] client.Get")
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, false, errors.Wrap(err, "[RedisStore.Get] json.Unmarshal")
	}
	return state, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, state State, ttl time.Duration) error {
	b, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "[RedisStore.Put] json.Marshal")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, b, ttl).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Put] client.Set")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Delete] client.Del")
	}
	return nil
}
