package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Collaborator refusals. Adapters wrap their specific cause in these.
var (
	ErrPaymentDeclined   = shared.NewRejectionError("PAYMENT_DECLINED", "Payment was not authorized")
	ErrReservationFailed = shared.NewRejectionError("INVENTORY_RESERVATION_FAILED", "Inventory could not be reserved")
)

// ReservationItem is one order line to hold stock for
type ReservationItem struct {
	VariantID  uuid.UUID
	Quantity   int64
	LineItemID uuid.UUID
}

// InventoryService holds and releases stock
type InventoryService interface {
	// Reserve holds stock for all items or none and returns one reservation id per item
	Reserve(ctx context.Context, items []ReservationItem, salesChannelID uuid.UUID) ([]uuid.UUID, error)

	// Release returns reserved stock. Unknown ids are ignored.
	Release(ctx context.Context, reservationIDs []uuid.UUID) error
}

// PaymentContext carries customer data a provider may need to authorize
type PaymentContext struct {
	CartID       uuid.UUID
	CustomerID   *uuid.UUID
	Email        string
	CurrencyCode valueobject.Currency
	Amount       decimal.Decimal
}

// Authorization is an authorized payment and the amounts captured so far
type Authorization struct {
	PaymentID string
	Captures  []Capture
}

// CapturedTotal sums the captures
func (a *Authorization) CapturedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range a.Captures {
		sum = sum.Add(c.Amount)
	}
	return sum
}

// PaymentProvider authorizes a cart's payment session
type PaymentProvider interface {
	Authorize(ctx context.Context, session cart.PaymentSession, pctx PaymentContext) (*Authorization, error)

	// Cancel voids an authorization. Canceling an unknown payment is a no-op.
	Cancel(ctx context.Context, paymentID string) error
}
