package cache

import (
	"context"
	"time"

	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/config"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// New picks Redis when it is enabled, otherwise an in-process TTL cache.
func New(cfg *config.Config) BytesCache {
	if cfg.Cache.Redis.Enabled {
		return NewRedisCache(RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return NewTTLCache()
}
