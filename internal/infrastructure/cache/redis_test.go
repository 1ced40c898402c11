package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// redisClient connects to MKT_TEST_REDIS_ADDR or skips the test
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("MKT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MKT_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisIdempotencyStore(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"
	store := NewRedisIdempotencyStore(client, prefix)

	isNew, err := store.MarkProcessed(ctx, "commission:o1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "commission:o1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	require.NoError(t, store.Release(ctx, "commission:o1"))
	processed, err := store.IsProcessed(ctx, "commission:o1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRedisReindexQueue(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	q := &RedisReindexQueue{client: client, key: "test:reindex:" + uuid.NewString()}
	t.Cleanup(func() { client.Del(context.Background(), q.key) })

	a, b := uuid.New(), uuid.New()
	require.NoError(t, q.Enqueue(ctx, a))
	require.NoError(t, q.Enqueue(ctx, b))

	got, err := client.LRange(ctx, q.key, 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{a.String(), b.String()}, got)
}

func TestMemoryReindexQueue(t *testing.T) {
	q := NewMemoryReindexQueue()
	id := uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), id))

	assert.Equal(t, []uuid.UUID{id}, q.Drain())
	assert.Empty(t, q.Drain())
}

func TestNewStores_RedisDisabled(t *testing.T) {
	stores, err := NewStores(context.Background(), config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	assert.IsType(t, &MemoryReindexQueue{}, stores.Reindex)
	assert.NoError(t, stores.Ping(context.Background()))
}
