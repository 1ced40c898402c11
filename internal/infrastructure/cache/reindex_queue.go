package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReindexOrderKey is the Redis list the search indexer drains
const ReindexOrderKey = "search:reindex:order"

// ReindexQueue hands order ids to the search indexer
type ReindexQueue interface {
	Enqueue(ctx context.Context, orderID uuid.UUID) error
}

// RedisReindexQueue pushes order ids onto a Redis list
type RedisReindexQueue struct {
	client redis.UniversalClient
	key    string
}

// NewRedisReindexQueue creates a queue on ReindexOrderKey
func NewRedisReindexQueue(client redis.UniversalClient) *RedisReindexQueue {
	return &RedisReindexQueue{client: client, key: ReindexOrderKey}
}

// Enqueue appends orderID to the list
func (q *RedisReindexQueue) Enqueue(ctx context.Context, orderID uuid.UUID) error {
	if err := q.client.RPush(ctx, q.key, orderID.String()).Err(); err != nil {
		return fmt.Errorf("enqueue reindex for order %s: %w", orderID, err)
	}
	return nil
}

// MemoryReindexQueue keeps ids in memory for single-process runs and tests
type MemoryReindexQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

// NewMemoryReindexQueue creates an empty queue
func NewMemoryReindexQueue() *MemoryReindexQueue {
	return &MemoryReindexQueue{}
}

// Enqueue appends orderID
func (q *MemoryReindexQueue) Enqueue(_ context.Context, orderID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, orderID)
	return nil
}

// Drain returns and clears the queued ids
func (q *MemoryReindexQueue) Drain() []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := q.ids
	q.ids = nil
	return ids
}

var (
	_ ReindexQueue = (*RedisReindexQueue)(nil)
	_ ReindexQueue = (*MemoryReindexQueue)(nil)
)
