package order

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeOrder    = "Order"
	AggregateTypeOrderSet = "OrderSet"
)

// Event type constants
const (
	EventTypeOrderPlaced    = "order.placed"
	EventTypeOrderSetPlaced = "order_set.placed"
)

// OrderPlacedEvent is raised once per order created by checkout.
// Subscribers compute commission and notify the seller from it.
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID            `json:"order_id"`
	OrderSetID   uuid.UUID            `json:"order_set_id"`
	SellerID     uuid.UUID            `json:"seller_id"`
	CustomerID   *uuid.UUID           `json:"customer_id,omitempty"`
	CurrencyCode valueobject.Currency `json:"currency_code"`
	Total        decimal.Decimal      `json:"total"`
	ItemCount    int                  `json:"item_count"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order, orderSetID, sellerID uuid.UUID) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderSetID:      orderSetID,
		SellerID:        sellerID,
		CustomerID:      o.CustomerID,
		CurrencyCode:    o.CurrencyCode,
		Total:           o.Total,
		ItemCount:       len(o.Items),
	}
}

// OrderSetPlacedEvent is raised once per successful checkout
type OrderSetPlacedEvent struct {
	shared.BaseDomainEvent
	OrderSetID uuid.UUID   `json:"order_set_id"`
	CartID     uuid.UUID   `json:"cart_id"`
	OrderIDs   []uuid.UUID `json:"order_ids"`
}

// NewOrderSetPlacedEvent creates a new OrderSetPlacedEvent
func NewOrderSetPlacedEvent(orderSetID, cartID uuid.UUID, orderIDs []uuid.UUID) *OrderSetPlacedEvent {
	return &OrderSetPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderSetPlaced, AggregateTypeOrderSet, orderSetID),
		OrderSetID:      orderSetID,
		CartID:          cartID,
		OrderIDs:        orderIDs,
	}
}
