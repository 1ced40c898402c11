package event

import "github.com/marketplace/backend/internal/domain/order"

// RegisterCheckoutEvents registers the checkout event types so the outbox
// processor can rebuild them from stored payloads.
func RegisterCheckoutEvents(serializer *EventSerializer) {
	Register[order.OrderPlacedEvent](serializer, order.EventTypeOrderPlaced, 1)
	Register[order.OrderSetPlacedEvent](serializer, order.EventTypeOrderSetPlaced, 1)
}
