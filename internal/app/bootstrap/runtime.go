// Package bootstrap wires optional runtime dependencies from configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/clinicore/schedengine/internal/availability"
	appconfig "github.com/clinicore/schedengine/internal/config"
	"github.com/clinicore/schedengine/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil so the
// engine runs without the slot cache instead of crashing.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, slot cache disabled", "error", err)
		return nil
	}
	return client
}

// BuildSlotCache wires the availability slot cache, or nil when Redis is off.
func BuildSlotCache(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *availability.SlotCache {
	client := BuildRedisClient(ctx, cfg, logger, true)
	if client == nil {
		return nil
	}
	return availability.NewSlotCache(client, cfg.SlotCacheTTL)
}
