package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tono:confirm:"

// RedisStore keeps confirmation tokens in Redis so tokens survive process
// restarts and work across API replicas. Expiry is handled by Redis TTLs;
// one-shot claiming uses GETDEL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, token string, b Binding, ttl time.Duration) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal binding: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store confirm token: %w", err)
	}
	return nil
}

// Claim implements Store.
func (s *RedisStore) Claim(ctx context.Context, token string) (Binding, error) {
	data, err := s.client.GetDel(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Binding{}, ErrTokenInvalid
	}
	if err != nil {
		return Binding{}, fmt.Errorf("failed to claim confirm token: %w", err)
	}

	var b Binding
	if err := json.Unmarshal(data, &b); err != nil {
		return Binding{}, fmt.Errorf("failed to unmarshal binding: %w", err)
	}
	return b, nil
}
