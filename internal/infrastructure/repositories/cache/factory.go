package cache

import (
	"context"
	"fmt"
	"time"

	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/logging"

	"github.com/redis/go-redis/v9"
)

// CacheType represents the type of cache implementation
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

const redisPingTimeout = 5 * time.Second

// Config holds cache configuration options
type Config struct {
	Type      CacheType
	RedisAddr string
	RedisDB   int
	Password  string
	KeyPrefix string
}

// Factory provides methods to create cache instances
type Factory struct{}

// NewFactory creates a new cache factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateCache creates a cache instance based on configuration
func (f *Factory) CreateCache(ctx context.Context, config Config) (interfaces.Cache, error) {
	switch config.Type {
	case CacheTypeMemory:
		logging.Info(ctx, "Creating memory cache", logging.Fields{
			"type": "memory",
		})
		return NewMemoryCache(), nil

	case CacheTypeRedis:
		logging.Info(ctx, "Creating Redis cache", logging.Fields{
			"type":       "redis",
			"addr":       config.RedisAddr,
			"database":   config.RedisDB,
			"key_prefix": config.KeyPrefix,
		})
		return f.createRedisCache(ctx, config)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}

// createRedisCache creates and tests Redis connection
func (f *Factory) createRedisCache(ctx context.Context, config Config) (interfaces.Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.Password,
		DB:       config.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", config.RedisAddr, err)
	}

	logging.Info(ctx, "Redis connection established successfully", logging.Fields{
		"addr":     config.RedisAddr,
		"database": config.RedisDB,
	})
	return NewRedisCacheWithClient(rdb, config.KeyPrefix), nil
}
