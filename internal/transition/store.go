// AngelaMos | 2026
// store.go

package transition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

type Store interface {
	Save(ctx context.Context, a *Action) error
	Get(ctx context.Context, id string) (*Action, error)
	Delete(ctx context.Context, id string) error
}

const keyPrefix = "fas:transition:"

// RedisStore keeps pending actions until their ExpiresAt.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, a *Action) error {
	ttl := time.Until(a.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("save transition: %w", core.ErrNotFound)
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode transition: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+a.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save transition: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Action, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get transition: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get transition: %w", err)
	}

	var a Action
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode transition: %w", err)
	}
	return &a, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete transition: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
