package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// Result is the outcome of completing a cart
type Result struct {
	OrderSetID uuid.UUID   `json:"order_set_id"`
	OrderIDs   []uuid.UUID `json:"order_ids"`
	// Existing is true when the cart had already been checked out and the
	// previously created order set is returned
	Existing bool `json:"existing"`
}

// OrderSetResponse is an order set with the orders it groups
type OrderSetResponse struct {
	ID        uuid.UUID       `json:"id"`
	CartID    *uuid.UUID      `json:"cart_id,omitempty"`
	Orders    []OrderResponse `json:"orders"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderResponse summarizes one seller's order
type OrderResponse struct {
	ID            uuid.UUID       `json:"id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Status        string          `json:"status"`
	CurrencyCode  string          `json:"currency_code"`
	ItemCount     int             `json:"item_count"`
	ItemSubtotal  decimal.Decimal `json:"item_subtotal"`
	ItemTaxTotal  decimal.Decimal `json:"item_tax_total"`
	ShippingTotal decimal.Decimal `json:"shipping_total"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Total         decimal.Decimal `json:"total"`
	PaidTotal     decimal.Decimal `json:"paid_total"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *order.Order, sellerID uuid.UUID) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		SellerID:      sellerID,
		Status:        string(o.Status),
		CurrencyCode:  string(o.CurrencyCode),
		ItemCount:     len(o.Items),
		ItemSubtotal:  o.ItemSubtotal,
		ItemTaxTotal:  o.ItemTaxTotal,
		ShippingTotal: o.ShippingTotal,
		DiscountTotal: o.DiscountTotal,
		Total:         o.Total,
		PaidTotal:     o.PaidTotal(),
	}
}
