package subscriber

import (
	"context"
	"fmt"

	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Subscriber names
const (
	CommissionCalculate = "commission.calculate"
	SearchReindexOrder  = "search.reindex-order"
	SellerNotifyOrder   = "seller.notify-order"
	OrderSetAudit       = "order-set.audit"
)

// Defaults returns the subscribers registered at startup
func Defaults() []Subscriber {
	return []Subscriber{
		{
			Name:           CommissionCalculate,
			EventTypes:     []string{order.EventTypeOrderPlaced},
			Handle:         calculateCommission,
			IdempotencyKey: CommissionKey,
		},
		{
			Name:       SearchReindexOrder,
			EventTypes: []string{order.EventTypeOrderPlaced},
			Handle:     reindexOrder,
		},
		{
			Name:       SellerNotifyOrder,
			EventTypes: []string{order.EventTypeOrderPlaced},
			Handle:     notifySeller,
		},
		{
			Name:       OrderSetAudit,
			EventTypes: []string{order.EventTypeOrderSetPlaced},
			Handle:     auditOrderSet,
		},
	}
}

// CommissionKey keys commission at-most-once by order id
func CommissionKey(evt shared.DomainEvent) string {
	if placed, ok := evt.(*order.OrderPlacedEvent); ok {
		return "commission:" + placed.OrderID.String()
	}
	return "commission:" + evt.AggregateID().String()
}

func orderPlaced(evt shared.DomainEvent) (*order.OrderPlacedEvent, error) {
	placed, ok := evt.(*order.OrderPlacedEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderPlaced, evt.EventType())
	}
	return placed, nil
}

func calculateCommission(ctx context.Context, evt shared.DomainEvent, deps Deps) error {
	placed, err := orderPlaced(evt)
	if err != nil {
		return err
	}
	_, err = deps.Commission.CalculateForOrder(ctx, placed.OrderID, placed.SellerID)
	return err
}

func reindexOrder(ctx context.Context, evt shared.DomainEvent, deps Deps) error {
	placed, err := orderPlaced(evt)
	if err != nil {
		return err
	}
	return deps.Reindex.Enqueue(ctx, placed.OrderID)
}

func notifySeller(_ context.Context, evt shared.DomainEvent, deps Deps) error {
	placed, err := orderPlaced(evt)
	if err != nil {
		return err
	}
	deps.Logger.Info("New order for seller",
		zap.String("seller_id", placed.SellerID.String()),
		zap.String("order_id", placed.OrderID.String()),
		zap.String("total", placed.Total.String()),
		zap.String("currency", string(placed.CurrencyCode)),
		zap.Int("items", placed.ItemCount),
	)
	return nil
}

func auditOrderSet(_ context.Context, evt shared.DomainEvent, deps Deps) error {
	placed, ok := evt.(*order.OrderSetPlacedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderSetPlaced, evt.EventType())
	}
	deps.Logger.Info("Order set placed",
		zap.String("order_set_id", placed.OrderSetID.String()),
		zap.String("cart_id", placed.CartID.String()),
		zap.Int("orders", len(placed.OrderIDs)),
	)
	return nil
}
