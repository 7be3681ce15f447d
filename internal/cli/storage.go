package cli

import (
	"context"
	"fmt"
	"time"

	"quizwise-service/internal/config"
	"quizwise-service/internal/infra/memory"
	pgstore "quizwise-service/internal/infra/postgres"
	redisstore "quizwise-service/internal/infra/redis"
	"quizwise-service/internal/infra/sqlite"
	"quizwise-service/internal/storage"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// openStorage builds the configured medium. The returned func releases it.
// Remote backends get the in-process read cache when cache.ttl is set.
func openStorage(ctx context.Context, cfg config.Config) (storage.KV, func(), error) {
	noop := func() {}
	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 0)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.NewKV(), noop, nil
	case config.DriverNone:
		log.Warn().Msg("storage disabled; quizzes and results will not be kept")
		return storage.Unsupported{}, noop, nil
	case config.DriverRedis:
		if cfg.Redis.Addr == "" {
			return nil, nil, fmt.Errorf("redis addr not configured")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		kv := withCache(redisstore.NewKV(client, config.TTLDuration(cfg.Redis.TTL, 0)), cacheTTL)
		return kv, func() { _ = client.Close() }, nil
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return withCache(pgstore.NewKV(pool), cacheTTL), pool.Close, nil
	case config.DriverSQLite:
		kv, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func withCache(kv storage.KV, ttl time.Duration) storage.KV {
	if ttl <= 0 {
		return kv
	}
	return memory.NewCachedKV(kv, ttl)
}
