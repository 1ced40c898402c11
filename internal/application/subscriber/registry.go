// Package subscriber holds the named reactions to checkout events and wires
// them onto an event bus.
package subscriber

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CommissionCalculator computes commission for one seller's order
type CommissionCalculator interface {
	CalculateForOrder(ctx context.Context, orderID, sellerID uuid.UUID) ([]commission.Line, error)
}

// ReindexQueue receives orders whose search documents are stale
type ReindexQueue interface {
	Enqueue(ctx context.Context, orderID uuid.UUID) error
}

// Deps are the collaborators available to every subscriber
type Deps struct {
	Commission CommissionCalculator
	Reindex    ReindexQueue
	Logger     *zap.Logger
}

// Func reacts to one event
type Func func(ctx context.Context, evt shared.DomainEvent, deps Deps) error

// Subscriber is a named reaction to some event types
type Subscriber struct {
	Name       string
	EventTypes []string
	Handle     Func
	// IdempotencyKey, when set, makes the subscriber run at most once per key
	IdempotencyKey event.KeyFunc
}

// Registry collects subscribers and attaches them to a bus
type Registry struct {
	deps        Deps
	store       shared.IdempotencyStore
	idempotency shared.IdempotencyConfig
	timeout     time.Duration
	subscribers []Subscriber
	handlers    map[string]shared.EventHandler
	logger      *zap.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithIdempotency sets the store and TTL backing idempotent subscribers
func WithIdempotency(store shared.IdempotencyStore, ttl time.Duration) Option {
	return func(r *Registry) {
		r.store = store
		if ttl > 0 {
			r.idempotency.TTL = ttl
		}
	}
}

// WithTimeout bounds each delivery to a subscriber
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// NewRegistry creates a registry with the given subscribers
func NewRegistry(deps Deps, logger *zap.Logger, subscribers []Subscriber, opts ...Option) *Registry {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	r := &Registry{
		deps:        deps,
		idempotency: shared.DefaultIdempotencyConfig(),
		subscribers: subscribers,
		handlers:    make(map[string]shared.EventHandler, len(subscribers)),
		logger:      logger.Named("subscriber"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Names lists the registered subscribers in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.subscribers))
	for i, s := range r.subscribers {
		names[i] = s.Name
	}
	return names
}

// Handler returns the bus handler built for a subscriber, once attached
func (r *Registry) Handler(name string) (shared.EventHandler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Attach subscribes every subscriber to bus
func (r *Registry) Attach(bus shared.EventSubscriber) {
	for _, s := range r.subscribers {
		var h shared.EventHandler = &handler{sub: s, deps: r.deps, timeout: r.timeout}
		if s.IdempotencyKey != nil && r.store != nil {
			h = event.NewIdempotentHandler(h, r.store, r.logger,
				event.WithIdempotencyConfig(r.idempotency),
				event.WithKeyFunc(s.IdempotencyKey),
			)
		}
		r.handlers[s.Name] = h
		bus.Subscribe(h, s.EventTypes...)
		r.logger.Debug("Subscriber attached",
			zap.String("subscriber", s.Name),
			zap.Strings("event_types", s.EventTypes),
		)
	}
}

// handler adapts a Subscriber to shared.EventHandler
type handler struct {
	sub     Subscriber
	deps    Deps
	timeout time.Duration
}

func (h *handler) Name() string { return h.sub.Name }

func (h *handler) EventTypes() []string { return h.sub.EventTypes }

func (h *handler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	ctx, span := telemetry.StartSpan(ctx, "subscriber."+h.sub.Name,
		telemetry.WithAttribute(telemetry.SpanAttrSubscriber, h.sub.Name),
		telemetry.WithAttribute(telemetry.SpanAttrEventType, evt.EventType()),
	)
	defer span.End()

	deps := h.deps
	deps.Logger = deps.Logger.With(
		zap.String("subscriber", h.sub.Name),
		zap.String("event_id", evt.EventID().String()),
	)
	if err := h.sub.Handle(ctx, evt, deps); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}
