package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the status of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// LineItem is an immutable snapshot of a cart line item
type LineItem struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	CartLineItemID    uuid.UUID
	Title             string
	VariantID         uuid.UUID
	ProductID         uuid.UUID
	ProductCategoryID *uuid.UUID
	ProductTypeID     *uuid.UUID
	Quantity          int64
	UnitPrice         decimal.Decimal
	IsTaxInclusive    bool
	TaxLines          []valueobject.TaxLine
	Adjustments       []valueobject.Adjustment
	Subtotal          decimal.Decimal
	DiscountTotal     decimal.Decimal
	TaxTotal          decimal.Decimal
	Total             decimal.Decimal
}

// ShippingMethod is the order's delivery method
type ShippingMethod struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	Name             string
	ShippingOptionID uuid.UUID
	Amount           decimal.Decimal
	IsTaxInclusive   bool
	TaxLines         []valueobject.TaxLine
	TaxTotal         decimal.Decimal
	Total            decimal.Decimal
}

// ReferenceCapture marks a transaction created from a payment capture
const ReferenceCapture = "capture"

// PaymentTransaction is the share of a payment capture booked to an order
type PaymentTransaction struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	Amount       decimal.Decimal
	CurrencyCode valueobject.Currency
	Reference    string
	ReferenceID  string
	PaymentID    string
	CreatedAt    time.Time
}

// Order is one seller's share of a checked-out cart
type Order struct {
	shared.BaseAggregateRoot
	Status          Status
	CustomerID      *uuid.UUID
	Email           string
	RegionID        uuid.UUID
	SalesChannelID  uuid.UUID
	CurrencyCode    valueobject.Currency
	ShippingAddress valueobject.Address
	BillingAddress  valueobject.Address
	Items           []LineItem
	ShippingMethods []ShippingMethod
	Transactions    []PaymentTransaction
	ItemSubtotal    decimal.Decimal
	ItemTaxTotal    decimal.Decimal
	ShippingTotal   decimal.Decimal
	DiscountTotal   decimal.Decimal
	Total           decimal.Decimal
}

// Header carries the customer-level fields copied from the cart
type Header struct {
	CustomerID      *uuid.UUID
	Email           string
	RegionID        uuid.UUID
	SalesChannelID  uuid.UUID
	CurrencyCode    valueobject.Currency
	ShippingAddress valueobject.Address
	BillingAddress  valueobject.Address
}

// NewOrder creates an empty pending order
func NewOrder(h Header) (*Order, error) {
	if h.CurrencyCode == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency code cannot be empty")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            StatusPending,
		CustomerID:        h.CustomerID,
		Email:             h.Email,
		RegionID:          h.RegionID,
		SalesChannelID:    h.SalesChannelID,
		CurrencyCode:      h.CurrencyCode,
		ShippingAddress:   h.ShippingAddress,
		BillingAddress:    h.BillingAddress,
		Items:             make([]LineItem, 0),
		ShippingMethods:   make([]ShippingMethod, 0),
		Transactions:      make([]PaymentTransaction, 0),
		ItemSubtotal:      decimal.Zero,
		ItemTaxTotal:      decimal.Zero,
		ShippingTotal:     decimal.Zero,
		DiscountTotal:     decimal.Zero,
		Total:             decimal.Zero,
	}, nil
}

// AddItem appends an item snapshot and prices it
func (o *Order) AddItem(item LineItem) {
	item.ID = uuid.New()
	item.OrderID = o.ID
	totals := valueobject.ComputeLineTotals(valueobject.LineInput{
		UnitPrice:      item.UnitPrice,
		Quantity:       item.Quantity,
		IsTaxInclusive: item.IsTaxInclusive,
		TaxLines:       item.TaxLines,
		Adjustments:    item.Adjustments,
	}, o.CurrencyCode)
	item.Subtotal = totals.Subtotal
	item.DiscountTotal = totals.DiscountTotal
	item.TaxTotal = totals.TaxTotal
	item.Total = totals.Total
	o.Items = append(o.Items, item)
	o.recalculateTotals()
}

// AddShippingMethod appends a shipping method and prices it
func (o *Order) AddShippingMethod(method ShippingMethod) {
	method.ID = uuid.New()
	method.OrderID = o.ID
	totals := valueobject.ComputeLineTotals(valueobject.LineInput{
		UnitPrice:      method.Amount,
		Quantity:       1,
		IsTaxInclusive: method.IsTaxInclusive,
		TaxLines:       method.TaxLines,
	}, o.CurrencyCode)
	method.TaxTotal = totals.TaxTotal
	method.Total = totals.Total
	o.ShippingMethods = append(o.ShippingMethods, method)
	o.recalculateTotals()
}

// AddTransaction books a captured amount to the order
func (o *Order) AddTransaction(paymentID, captureID string, amount decimal.Decimal) {
	o.Transactions = append(o.Transactions, PaymentTransaction{
		ID:           uuid.New(),
		OrderID:      o.ID,
		Amount:       amount,
		CurrencyCode: o.CurrencyCode,
		Reference:    ReferenceCapture,
		ReferenceID:  captureID,
		PaymentID:    paymentID,
		CreatedAt:    time.Now(),
	})
}

// PaidTotal sums the booked transactions
func (o *Order) PaidTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range o.Transactions {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// FindItem returns the item with the given id
func (o *Order) FindItem(itemID uuid.UUID) (*LineItem, bool) {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx], true
		}
	}
	return nil, false
}

func (o *Order) recalculateTotals() {
	o.ItemSubtotal = decimal.Zero
	o.ItemTaxTotal = decimal.Zero
	o.DiscountTotal = decimal.Zero
	itemTotal := decimal.Zero
	for _, item := range o.Items {
		o.ItemSubtotal = o.ItemSubtotal.Add(item.Subtotal)
		o.ItemTaxTotal = o.ItemTaxTotal.Add(item.TaxTotal)
		o.DiscountTotal = o.DiscountTotal.Add(item.DiscountTotal)
		itemTotal = itemTotal.Add(item.Total)
	}
	o.ShippingTotal = decimal.Zero
	for _, m := range o.ShippingMethods {
		o.ShippingTotal = o.ShippingTotal.Add(m.Total)
	}
	o.Total = itemTotal.Add(o.ShippingTotal)
	o.Touch()
}

// OrderSet groups the orders produced by one checkout
type OrderSet struct {
	shared.BaseEntity
}

// NewOrderSet creates a new order set
func NewOrderSet() *OrderSet {
	return &OrderSet{BaseEntity: shared.NewBaseEntity()}
}
