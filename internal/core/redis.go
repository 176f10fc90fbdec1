// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/useSafe/File-Allocation-System-2.0/internal/config"
)

const redisOpTimeout = 5 * time.Second

// Redis is the shared client plus the pub/sub channel that carries change
// events between API instances.
type Redis struct {
	Client        *redis.Client
	changeChannel string
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	if cfg.ChangeChannel == "" {
		return nil, errors.New("redis: change channel is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	r := &Redis{
		Client:        redis.NewClient(opts),
		changeChannel: cfg.ChangeChannel,
	}

	if err := r.Ping(ctx); err != nil {
		_ = r.Client.Close() //nolint:errcheck // startup failure
		return nil, err
	}
	return r, nil
}

func (r *Redis) ChangeChannel() string {
	return r.changeChannel
}

func (r *Redis) PublishChange(ctx context.Context, payload []byte) error {
	if err := r.Client.Publish(ctx, r.changeChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.changeChannel, err)
	}
	return nil
}

// SubscribeChanges returns a subscription that the server has confirmed.
// The caller owns it and must Close it.
func (r *Redis) SubscribeChanges(ctx context.Context) (*redis.PubSub, error) {
	ps := r.Client.Subscribe(ctx, r.changeChannel)

	confirmCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if _, err := ps.Receive(confirmCtx); err != nil {
		_ = ps.Close() //nolint:errcheck // subscription never started
		return nil, fmt.Errorf("subscribe %s: %w", r.changeChannel, err)
	}
	return ps, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}

func (r *Redis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
