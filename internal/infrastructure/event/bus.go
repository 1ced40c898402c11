package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish once Stop has been called
var ErrBusStopped = errors.New("event bus stopped")

// Named is implemented by handlers that carry a subscriber name for logs and metrics
type Named interface {
	Name() string
}

// FailureHook is called when a delivery gives up after the last attempt
type FailureHook func(ctx context.Context, subscriber string, event shared.DomainEvent, err error)

// AsyncEventBus delivers every (event, handler) pair in its own goroutine.
// Publish never waits for subscribers. Failed deliveries are retried with
// exponential backoff up to maxAttempts.
type AsyncEventBus struct {
	subs        *subscriptions
	logger      *zap.Logger
	maxAttempts int
	baseBackoff time.Duration
	onFailure   FailureHook

	stopped atomic.Bool
	wg      sync.WaitGroup
	abort   chan struct{}
	once    sync.Once
}

// BusOption configures an AsyncEventBus
type BusOption func(*AsyncEventBus)

// WithRetry sets the attempt budget and first backoff for a delivery
func WithRetry(maxAttempts int, baseBackoff time.Duration) BusOption {
	return func(b *AsyncEventBus) {
		if maxAttempts > 0 {
			b.maxAttempts = maxAttempts
		}
		if baseBackoff > 0 {
			b.baseBackoff = baseBackoff
		}
	}
}

// WithFailureHook registers a callback for deliveries that exhausted their retries
func WithFailureHook(hook FailureHook) BusOption {
	return func(b *AsyncEventBus) {
		b.onFailure = hook
	}
}

// NewAsyncEventBus creates a new async event bus
func NewAsyncEventBus(logger *zap.Logger, opts ...BusOption) *AsyncEventBus {
	b := &AsyncEventBus{
		subs:        newSubscriptions(),
		logger:      logger,
		maxAttempts: 3,
		baseBackoff: 100 * time.Millisecond,
		abort:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish schedules delivery of events to their subscribers and returns immediately.
// Deliveries outlive ctx cancellation but keep its values (trace context).
func (b *AsyncEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		return ErrBusStopped
	}
	deliveryCtx := context.WithoutCancel(ctx)
	for _, event := range events {
		for _, handler := range b.subs.route(event.EventType()) {
			b.wg.Add(1)
			go b.deliver(deliveryCtx, handler, event)
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *AsyncEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.subs.add(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.String("subscriber", HandlerName(handler)),
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *AsyncEventBus) Unsubscribe(handler shared.EventHandler) {
	b.subs.remove(handler)
}

// Start starts the event bus
func (b *AsyncEventBus) Start(ctx context.Context) error {
	b.logger.Info("event bus started", zap.Int("subscriptions", b.subs.count()))
	return nil
}

// Stop rejects new events and waits for in-flight deliveries until ctx is done.
// Deliveries still sleeping between retries are abandoned when ctx expires.
func (b *AsyncEventBus) Stop(ctx context.Context) error {
	b.stopped.Store(true)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		b.once.Do(func() { close(b.abort) })
		return ctx.Err()
	}
}

func (b *AsyncEventBus) deliver(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) {
	defer b.wg.Done()

	name := HandlerName(handler)
	var err error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if err = b.dispatchToHandler(ctx, handler, event); err == nil {
			return
		}
		b.logger.Warn("handler failed to process event",
			zap.String("subscriber", name),
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == b.maxAttempts {
			break
		}
		select {
		case <-time.After(b.baseBackoff * time.Duration(1<<uint(attempt-1))):
		case <-b.abort:
			return
		}
	}

	b.logger.Error("handler gave up on event",
		zap.String("subscriber", name),
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.Error(err),
	)
	if b.onFailure != nil {
		b.onFailure(ctx, name, event, err)
	}
}

// dispatchToHandler converts a handler panic into an error
func (b *AsyncEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

// HandlerName returns the subscriber name, or the handler's type when it has none
func HandlerName(handler shared.EventHandler) string {
	if n, ok := handler.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", handler)
}

var _ shared.EventBus = (*AsyncEventBus)(nil)
