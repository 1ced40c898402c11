package subscriber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCalculator struct {
	mu       sync.Mutex
	calls    []uuid.UUID
	failures int
}

func (c *fakeCalculator) CalculateForOrder(_ context.Context, orderID, _ uuid.UUID) ([]commission.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, orderID)
	if c.failures > 0 {
		c.failures--
		return nil, errors.New("rule store unavailable")
	}
	return []commission.Line{{ID: uuid.New(), OrderID: orderID}}, nil
}

func (c *fakeCalculator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func placedEvent(t *testing.T) *order.OrderPlacedEvent {
	t.Helper()
	o, err := order.NewOrder(order.Header{CurrencyCode: valueobject.EUR})
	require.NoError(t, err)
	return order.NewOrderPlacedEvent(o, uuid.New(), uuid.New())
}

type registryFixture struct {
	bus    *event.AsyncEventBus
	calc   *fakeCalculator
	queue  *cache.MemoryReindexQueue
	store  *cache.InMemoryIdempotencyStore
	reg    *Registry
	mu     sync.Mutex
	failed []string
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	f := &registryFixture{
		calc:  &fakeCalculator{},
		queue: cache.NewMemoryReindexQueue(),
		store: cache.NewInMemoryIdempotencyStore(),
	}
	t.Cleanup(func() { _ = f.store.Close() })
	f.bus = event.NewAsyncEventBus(zap.NewNop(),
		event.WithRetry(3, time.Millisecond),
		event.WithFailureHook(func(_ context.Context, subscriber string, _ shared.DomainEvent, _ error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.failed = append(f.failed, subscriber)
		}),
	)
	f.reg = NewRegistry(Deps{Commission: f.calc, Reindex: f.queue}, zap.NewNop(), Defaults(),
		WithIdempotency(f.store, time.Hour),
		WithTimeout(time.Second),
	)
	f.reg.Attach(f.bus)
	return f
}

func (f *registryFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.bus.Stop(ctx))
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry(Deps{}, zap.NewNop(), Defaults())
	assert.Equal(t, []string{CommissionCalculate, SearchReindexOrder, SellerNotifyOrder, OrderSetAudit}, reg.Names())

	_, ok := reg.Handler(CommissionCalculate)
	assert.False(t, ok, "handlers exist only after Attach")
}

func TestRegistry_CommissionRunsOncePerOrder(t *testing.T) {
	f := newRegistryFixture(t)
	evt := placedEvent(t)
	ctx := context.Background()

	require.NoError(t, f.bus.Publish(ctx, evt))
	require.NoError(t, f.bus.Publish(ctx, evt))
	f.drain(t)

	assert.Equal(t, 1, f.calc.count())
	// reindexing is not idempotent and runs for every delivery
	assert.Equal(t, []uuid.UUID{evt.OrderID, evt.OrderID}, f.queue.Drain())
	assert.Empty(t, f.failed)

	h, ok := f.reg.Handler(CommissionCalculate)
	require.True(t, ok)
	idem, ok := h.(*event.IdempotentHandler)
	require.True(t, ok)
	assert.Equal(t, int64(1), idem.Stats().Duplicate)
}

func TestRegistry_FailedCommissionIsRetried(t *testing.T) {
	f := newRegistryFixture(t)
	f.calc.failures = 1
	evt := placedEvent(t)

	require.NoError(t, f.bus.Publish(context.Background(), evt))
	f.drain(t)

	// the first attempt releases its key so the retry can run
	assert.Equal(t, 2, f.calc.count())
	assert.Empty(t, f.failed)
	processed, err := f.store.IsProcessed(context.Background(), CommissionKey(evt))
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestRegistry_ExhaustedRetriesReachFailureHook(t *testing.T) {
	f := newRegistryFixture(t)
	f.calc.failures = 10

	require.NoError(t, f.bus.Publish(context.Background(), placedEvent(t)))
	f.drain(t)

	assert.Equal(t, 3, f.calc.count())
	assert.Equal(t, []string{CommissionCalculate}, f.failed)
}

func TestRegistry_OrderSetPlacedReachesAuditOnly(t *testing.T) {
	f := newRegistryFixture(t)
	evt := order.NewOrderSetPlacedEvent(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()})

	require.NoError(t, f.bus.Publish(context.Background(), evt))
	f.drain(t)

	assert.Zero(t, f.calc.count())
	assert.Empty(t, f.queue.Drain())
	assert.Empty(t, f.failed)
}

func TestCommissionKey(t *testing.T) {
	evt := placedEvent(t)
	assert.Equal(t, "commission:"+evt.OrderID.String(), CommissionKey(evt))
}
