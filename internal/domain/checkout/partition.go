// Package checkout holds the pure rules that turn one multi-seller cart into
// per-seller orders: partitioning and payment allocation.
package checkout

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Partition errors
var (
	ErrEmptyCart             = shared.NewDomainError("EMPTY_CART", "Cart has no line items")
	ErrUnresolvedSeller      = shared.NewDomainError("UNRESOLVED_SELLER", "Line item or shipping method has no seller")
	ErrDuplicateShipping     = shared.NewDomainError("DUPLICATE_SHIPPING_OPTION", "Shipping option is used more than once")
	ErrMultipleShipping      = shared.NewDomainError("MULTIPLE_SHIPPING_METHODS", "Seller has more than one shipping method")
	ErrMissingShippingMethod = shared.NewDomainError("MISSING_SHIPPING_METHOD", "Seller has items but no shipping method")
	ErrOrphanShippingMethod  = shared.NewDomainError("ORPHAN_SHIPPING_METHOD", "Shipping method has no items from its seller")
	ErrPartitionInvariant    = shared.NewInvariantError("PARTITION_INVARIANT_VIOLATED", "Partition lost or duplicated cart content")
)

// SellerDraft is the unpersisted order for one seller
type SellerDraft struct {
	SellerID       uuid.UUID
	Items          []cart.LineItem
	ShippingMethod cart.ShippingMethod
	ItemTotal      decimal.Decimal
	ShippingTotal  decimal.Decimal
	Total          decimal.Decimal
}

// Partition splits a cart by seller. Items and shipping methods must carry
// resolved seller ids. Drafts follow the order in which sellers first appear
// in the cart's items. Partition has no side effects.
func Partition(c *cart.Cart) ([]SellerDraft, error) {
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	sellerOrder := make([]uuid.UUID, 0)
	itemsBySeller := make(map[uuid.UUID][]cart.LineItem)
	for _, item := range c.Items {
		if item.SellerID == uuid.Nil {
			return nil, fmt.Errorf("line item %s: %w", item.ID, ErrUnresolvedSeller)
		}
		if _, ok := itemsBySeller[item.SellerID]; !ok {
			sellerOrder = append(sellerOrder, item.SellerID)
		}
		itemsBySeller[item.SellerID] = append(itemsBySeller[item.SellerID], item)
	}

	methodBySeller := make(map[uuid.UUID]cart.ShippingMethod, len(c.ShippingMethods))
	seenOptions := make(map[uuid.UUID]struct{}, len(c.ShippingMethods))
	for _, m := range c.ShippingMethods {
		if m.SellerID == uuid.Nil {
			return nil, fmt.Errorf("shipping method %s: %w", m.ID, ErrUnresolvedSeller)
		}
		if _, dup := seenOptions[m.ShippingOptionID]; dup {
			return nil, fmt.Errorf("shipping option %s: %w", m.ShippingOptionID, ErrDuplicateShipping)
		}
		seenOptions[m.ShippingOptionID] = struct{}{}
		if _, dup := methodBySeller[m.SellerID]; dup {
			return nil, fmt.Errorf("seller %s: %w", m.SellerID, ErrMultipleShipping)
		}
		if _, ok := itemsBySeller[m.SellerID]; !ok {
			return nil, fmt.Errorf("seller %s: %w", m.SellerID, ErrOrphanShippingMethod)
		}
		methodBySeller[m.SellerID] = m
	}

	drafts := make([]SellerDraft, 0, len(sellerOrder))
	for _, sellerID := range sellerOrder {
		method, ok := methodBySeller[sellerID]
		if !ok {
			return nil, fmt.Errorf("seller %s: %w", sellerID, ErrMissingShippingMethod)
		}
		draft := SellerDraft{
			SellerID:       sellerID,
			Items:          itemsBySeller[sellerID],
			ShippingMethod: method,
			ItemTotal:      decimal.Zero,
		}
		for _, item := range draft.Items {
			draft.ItemTotal = draft.ItemTotal.Add(item.Totals(c.CurrencyCode).Total)
		}
		draft.ShippingTotal = method.Totals(c.CurrencyCode).Total
		draft.Total = draft.ItemTotal.Add(draft.ShippingTotal)
		drafts = append(drafts, draft)
	}

	if err := verifyPartition(c, drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func verifyPartition(c *cart.Cart, drafts []SellerDraft) error {
	itemCount := 0
	total := decimal.Zero
	for _, d := range drafts {
		itemCount += len(d.Items)
		total = total.Add(d.Total)
	}
	if itemCount != len(c.Items) || len(drafts) != len(c.ShippingMethods) {
		return fmt.Errorf("item or method count changed: %w", ErrPartitionInvariant)
	}
	if !total.Equal(c.Total()) {
		return fmt.Errorf("drafts total %s, cart total %s: %w", total, c.Total(), ErrPartitionInvariant)
	}
	return nil
}

// DraftsTotal sums the draft totals
func DraftsTotal(drafts []SellerDraft) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range drafts {
		sum = sum.Add(d.Total)
	}
	return sum
}

// BuildOrder turns a draft into a pending order carrying the cart header,
// the draft's items and shipping method, and its allocated transactions.
func BuildOrder(c *cart.Cart, draft SellerDraft, allocations []Allocation) (*order.Order, error) {
	o, err := order.NewOrder(order.Header{
		CustomerID:      c.CustomerID,
		Email:           c.Email,
		RegionID:        c.RegionID,
		SalesChannelID:  c.SalesChannelID,
		CurrencyCode:    c.CurrencyCode,
		ShippingAddress: c.ShippingAddress,
		BillingAddress:  c.BillingAddress,
	})
	if err != nil {
		return nil, err
	}
	for _, item := range draft.Items {
		o.AddItem(order.LineItem{
			CartLineItemID:    item.ID,
			Title:             item.Title,
			VariantID:         item.VariantID,
			ProductID:         item.ProductID,
			ProductCategoryID: item.ProductCategoryID,
			ProductTypeID:     item.ProductTypeID,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			IsTaxInclusive:    item.IsTaxInclusive,
			TaxLines:          item.TaxLines,
			Adjustments:       item.Adjustments,
		})
	}
	m := draft.ShippingMethod
	o.AddShippingMethod(order.ShippingMethod{
		Name:             m.Name,
		ShippingOptionID: m.ShippingOptionID,
		Amount:           m.Amount,
		IsTaxInclusive:   m.IsTaxInclusive,
		TaxLines:         m.TaxLines,
	})
	for _, a := range allocations {
		if a.SellerID != draft.SellerID {
			continue
		}
		o.AddTransaction(a.PaymentID, a.CaptureID, a.Amount)
	}
	return o, nil
}
