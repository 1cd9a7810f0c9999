package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implementa SelectionStore sobre Redis.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis conecta y verifica la conexión con un ping.
func NewRedis(cfg RedisConfig, ttl time.Duration) (*Redis, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("session: redis ping failed: %w", err)
	}
	return newRedis(rdb, cfg.Prefix, ttl), nil
}

func newRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{client: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(accountID string) string {
	return r.prefix + ":" + accountID
}

func (r *Redis) Get(ctx context.Context, accountID string) (string, bool, error) {
	code, err := r.client.Get(ctx, r.key(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, code != "", nil
}

func (r *Redis) Set(ctx context.Context, accountID, code string) error {
	return r.client.Set(ctx, r.key(accountID), code, r.ttl).Err()
}

func (r *Redis) Clear(ctx context.Context, accountID string) error {
	return r.client.Del(ctx, r.key(accountID)).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
