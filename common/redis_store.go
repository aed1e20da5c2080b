package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig holds connection settings for the Redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

const redisOpTimeout = 3 * time.Second

var _ CacheRepository = (*redisStore)(nil)

type redisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// DialRedis creates a Redis client and verifies the connection.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisStore returns a CacheRepository persisted in Redis, so entries
// survive process restarts and are shared between processes.
func NewRedisStore(client *redis.Client, logger *slog.Logger) CacheRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisStore{client: client, logger: logger}
}

func (r *redisStore) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (r *redisStore) Set(key string, value []byte, expiration time.Duration) {
	if expiration < 0 {
		expiration = 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		r.logger.Warn("redis set failed", "key", key, "error", err)
	}
}

func (r *redisStore) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("redis delete failed", "key", key, "error", err)
	}
}
