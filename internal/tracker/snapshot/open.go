package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-tracker/internal/shared/cache"
	"github.com/radieske/bet-tracker/internal/shared/config"
	"github.com/radieske/bet-tracker/internal/shared/db"
)

// Backend é o store aberto junto com as conexões que ele usa
type Backend struct {
	Store Store
	DB    *sql.DB       // só no backend postgres
	Redis *redis.Client // só no backend redis
}

// Open conecta o backend configurado em SNAPSHOT_BACKEND; postgres também aplica as migrations
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.SnapshotBackend {
	case config.BackendMemory, "":
		return &Backend{Store: NewMemoryStore()}, nil
	case config.BackendRedis:
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: NewRedisStore(rdb, cfg.SnapshotKey), Redis: rdb}, nil
	case config.BackendPostgres:
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pg); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return &Backend{Store: NewPostgresStore(pg, cfg.SnapshotKey), DB: pg}, nil
	}
	return nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
}

// Close libera as conexões abertas por Open
func (b *Backend) Close() error {
	var errs []error
	if b.DB != nil {
		errs = append(errs, b.DB.Close())
	}
	if b.Redis != nil {
		errs = append(errs, b.Redis.Close())
	}
	return errors.Join(errs...)
}
