// Package cache keeps finished transcription results in Redis so identical
// audio never gets transcribed twice, even across processes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"green-needle/internal/app/batch"
	"green-needle/internal/app/model"
)

const (
	defaultAddr   = "localhost:6379"
	defaultTTL    = 7 * 24 * time.Hour
	defaultPrefix = "green-needle:result"
)

// Config locates the Redis server and controls entry lifetime.
type Config struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// commands is the slice of the Redis API the cache touches. Tests substitute
// a fake.
type commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisCache satisfies the batch processor's result cache.
type RedisCache struct {
	client commands
	ttl    time.Duration
	prefix string
}

var _ batch.ResultCache = (*RedisCache)(nil)

// New builds a cache over a fresh Redis connection. The connection is lazy;
// use Ping to verify the server is reachable.
func New(cfg Config) *RedisCache {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCache{client: client, ttl: cfg.TTL, prefix: cfg.KeyPrefix}
}

// Get returns the cached result, or nil on a miss. Corrupt entries count as
// a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*model.TranscriptionResult, error) {
	data, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: get %s: %w", key, err)
	}

	var result model.TranscriptionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, nil
	}
	return &result, nil
}

// Set stores the result under the key for the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, result *model.TranscriptionResult) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Ping verifies the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) redisKey(key string) string {
	return c.prefix + ":" + key
}
