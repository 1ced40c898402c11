package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for order and order set persistence
type Repository interface {
	// FindByID loads an order with items, shipping methods and transactions
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDs loads several orders, preserving the order of ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Order, error)

	// CreateOrders inserts all orders and their children in one transaction
	CreateOrders(ctx context.Context, orders []*Order) error

	// DeleteOrders removes orders and their children. Missing ids are ignored.
	DeleteOrders(ctx context.Context, ids []uuid.UUID) error

	CreateOrderSet(ctx context.Context, set *OrderSet) error
	FindOrderSetByID(ctx context.Context, id uuid.UUID) (*OrderSet, error)

	// DeleteOrderSet removes an order set. A missing id is ignored.
	DeleteOrderSet(ctx context.Context, id uuid.UUID) error
}
