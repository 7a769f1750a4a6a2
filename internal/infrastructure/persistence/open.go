package persistence

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/persistence/memory"
	"probaho-server/internal/infrastructure/persistence/mysql"
	"probaho-server/internal/infrastructure/persistence/postgres"
	redisstore "probaho-server/internal/infrastructure/persistence/redis"
	"probaho-server/internal/infrastructure/resilience"
)

// Backend 開いたストレージと後始末
type Backend struct {
	Storage storage.Storage
	Driver  string
	closers []func() error
}

// Close 接続を閉じる
func (b *Backend) Close() error {
	var firstErr error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Open 設定のドライバーでストレージを開く
// リモートのドライバーはブレーカーとタイムアウトで保護する
// redisClient はドライバーがredisの場合に使う（nilなら新規作成）
func Open(ctx context.Context, cfg *config.Config, redisClient goredis.UniversalClient, logger *otelinfra.Logger, latency resilience.LatencyRecorder) (*Backend, error) {
	b := &Backend{Driver: cfg.Storage.Driver}

	var inner storage.Storage
	switch cfg.Storage.Driver {
	case "memory", "":
		b.Storage = memory.NewStore()
		b.Driver = "memory"
		return b, nil
	case "redis":
		if redisClient == nil {
			client := redisstore.NewClient(&cfg.Redis)
			b.closers = append(b.closers, client.Close)
			redisClient = client
		}
		inner = redisstore.NewStore(redisClient)
	case "mysql":
		db, err := mysql.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		store := mysql.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = b.Close()
			return nil, err
		}
		inner = store
	case "postgres":
		pool, err := postgres.NewPool(ctx, &cfg.Postgres)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error {
			pool.Close()
			return nil
		})
		store := postgres.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = b.Close()
			return nil, err
		}
		inner = store
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}

	b.Storage = resilience.NewStorage(inner, cfg.Storage.Driver, cfg.Storage.Timeout, &cfg.Breaker, logger, latency)
	logger.Info(ctx, "storage opened", map[string]interface{}{"driver": cfg.Storage.Driver})
	return b, nil
}
