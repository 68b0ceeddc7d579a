package ratelimit

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/booklib/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewLimiter),
)

// NewLimiter picks the Redis token bucket when an address is configured and the
// in-process limiter otherwise.
func NewLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Limiter, error) {
	limitCfg := cfg.RateLimit
	log = log.Named("ratelimit")
	if !limitCfg.Enabled {
		log.Info("rate limiting disabled")
		return AllowAll(), nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		log.Info("using in-process rate limiter", zap.Float64("rate", limitCfg.Rate), zap.Int("burst", limitCfg.Burst))
		return NewMemoryLimiter(limitCfg.Rate, limitCfg.Burst)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})
	bucket, err := NewTokenBucket(client, limitCfg.Rate, limitCfg.Burst)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("rate limit redis unreachable", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	log.Info("using redis rate limiter", zap.String("addr", addr))
	return bucket, nil
}
