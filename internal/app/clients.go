package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	redisclient "github.com/yungbote/branchaudit-backend/internal/clients/redis"
	"github.com/yungbote/branchaudit-backend/internal/platform/blob"
	"github.com/yungbote/branchaudit-backend/internal/platform/lock"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type Clients struct {
	Redis  *goredis.Client
	Locker lock.Locker
	Blobs  blob.Store
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis backs the reorder/delete locks so they hold across replicas.
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rdb, err := redisclient.NewClient(ctx, log, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
		out.Locker = lock.NewRedisLocker(rdb, "branchaudit:lock:")
	} else {
		log.Warn("REDIS_ADDR not set; locks are process-local")
		out.Locker = lock.NewMemoryLocker()
	}

	blobs, err := resolveBlobStore(ctx, log, cfg)
	if err != nil {
		out.Close()
		return Clients{}, err
	}
	out.Blobs = blobs
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if closer, ok := c.Blobs.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
