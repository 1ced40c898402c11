package cache

import (
	"context"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the Redis-backed collaborators of the event subscribers
type Stores struct {
	Idempotency shared.IdempotencyStore
	Reindex     ReindexQueue
	client      *redis.Client
}

// Close releases the stores and the Redis client, if any
func (s *Stores) Close() error {
	_ = s.Idempotency.Close()
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Ping checks the Redis connection. In-memory stores are always reachable.
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// NewStores builds Redis-backed stores when Redis is enabled, in-memory ones otherwise.
// An enabled but unreachable Redis is an error.
func NewStores(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Stores, error) {
	if !cfg.Enabled {
		logger.Warn("Redis disabled, using in-memory idempotency store and reindex queue")
		return &Stores{
			Idempotency: NewInMemoryIdempotencyStore(),
			Reindex:     NewMemoryReindexQueue(),
		}, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("using Redis idempotency store", zap.String("addr", cfg.Addr()))
	return &Stores{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Reindex:     NewRedisReindexQueue(client),
		client:      client,
	}, nil
}
