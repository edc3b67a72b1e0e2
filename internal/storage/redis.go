package storage

import (
	"context"
	"fmt"
	"time"

	"repairdesk/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and pings it. It returns nil, nil when Redis
// is not configured.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis client connection test failed: %w", err)
	}
	return rdb, nil
}
