package event

import (
	"context"
	"fmt"

	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher implements EventPublisher by writing events to the outbox
// table. The OutboxProcessor relays them to the bus.
type OutboxPublisher struct {
	db         *gorm.DB
	serializer *EventSerializer
	maxRetries int
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(db *gorm.DB, serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		db:         db,
		serializer: serializer,
	}
}

// SetMaxRetries sets the relay attempts of new entries. Zero keeps the default.
func (p *OutboxPublisher) SetMaxRetries(n int) {
	p.maxRetries = n
}

// Publish stores events in one insert
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return p.PublishWithTx(ctx, p.db, events...)
}

// PublishWithTx stores events inside the caller's transaction
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", event.EventType(), err)
		}
		entry := shared.NewOutboxEntry(event, payload)
		if p.maxRetries > 0 {
			entry.MaxRetries = p.maxRetries
		}
		entries = append(entries, entry)
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

var _ shared.EventPublisher = (*OutboxPublisher)(nil)
