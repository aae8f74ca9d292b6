package userlock

import (
	"context"
	"time"

	"learnapp/internal/config"
	"learnapp/internal/observability"
	contextutils "learnapp/internal/utils"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "learnapp:lock:"
	retryInterval = 50 * time.Millisecond
)

// releaseScript deletes the lease only when it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis holds a redis lease around fn. Callers in the same process queue locally first.
type Redis struct {
	client goredis.UniversalClient
	ttl    time.Duration
	local  *Local
	logger *observability.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client goredis.UniversalClient, ttl time.Duration, logger *observability.Logger) *Redis {
	if ttl <= 0 {
		ttl = config.DefaultUserLockTTL
	}
	return &Redis{client: client, ttl: ttl, local: NewLocal(), logger: logger}
}

// Do acquires the lease for key, runs fn, and releases the lease.
func (r *Redis) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return r.local.Do(ctx, key, func(ctx context.Context) error {
		token := uuid.NewString()
		redisKey := keyPrefix + key

		if err := r.acquire(ctx, redisKey, token); err != nil {
			return err
		}
		defer func() {
			// The request context may already be cancelled; release regardless.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.logger.Warn(ctx, "Failed to release user lock", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}()

		return fn(ctx)
	})
}

func (r *Redis) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to acquire lock %s", key)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// New returns a redis-backed locker when a redis url is configured and a local one
// otherwise. The returned close function releases the redis client.
func New(ctx context.Context, cfg config.RedisConfig, logger *observability.Logger) (Locker, func() error, error) {
	if !cfg.Enabled() {
		return NewLocal(), func() error { return nil }, nil
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, contextutils.WrapError(err, "invalid redis url")
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, config.HealthCheckTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, contextutils.WrapError(err, "redis ping failed")
	}

	logger.Info(ctx, "Using redis user locks", map[string]interface{}{"addr": opts.Addr})
	return NewRedis(client, cfg.LockTTL, logger), client.Close, nil
}
