package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineItem is a purchasable variant in the cart. SellerID is filled in by
// seller resolution before checkout and is uuid.Nil until then.
type LineItem struct {
	ID                uuid.UUID
	CartID            uuid.UUID
	Title             string
	VariantID         uuid.UUID
	ProductID         uuid.UUID
	ProductCategoryID *uuid.UUID
	ProductTypeID     *uuid.UUID
	SellerID          uuid.UUID
	Quantity          int64
	UnitPrice         decimal.Decimal
	IsTaxInclusive    bool
	TaxLines          []valueobject.TaxLine
	Adjustments       []valueobject.Adjustment
	CreatedAt         time.Time
}

// LineItemInput holds the fields needed to add a line item
type LineItemInput struct {
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
}

func newLineItem(cartID uuid.UUID, in LineItemInput) (*LineItem, error) {
	if in.ProductID == uuid.Nil || in.VariantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product and variant are required")
	}
	if in.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &LineItem{
		ID:                uuid.New(),
		CartID:            cartID,
		Title:             in.Title,
		VariantID:         in.VariantID,
		ProductID:         in.ProductID,
		ProductCategoryID: in.ProductCategoryID,
		ProductTypeID:     in.ProductTypeID,
		Quantity:          in.Quantity,
		UnitPrice:         in.UnitPrice,
		IsTaxInclusive:    in.IsTaxInclusive,
		TaxLines:          in.TaxLines,
		Adjustments:       in.Adjustments,
		CreatedAt:         time.Now(),
	}, nil
}

// Totals prices the item in the given currency
func (i LineItem) Totals(currency valueobject.Currency) valueobject.LineTotals {
	return valueobject.ComputeLineTotals(valueobject.LineInput{
		UnitPrice:      i.UnitPrice,
		Quantity:       i.Quantity,
		IsTaxInclusive: i.IsTaxInclusive,
		TaxLines:       i.TaxLines,
		Adjustments:    i.Adjustments,
	}, currency)
}

// ShippingMethod is the delivery choice for one seller's items
type ShippingMethod struct {
	ID               uuid.UUID
	CartID           uuid.UUID
	Name             string
	ShippingOptionID uuid.UUID
	SellerID         uuid.UUID
	Amount           decimal.Decimal
	IsTaxInclusive   bool
	TaxLines         []valueobject.TaxLine
	CreatedAt        time.Time
}

// ShippingMethodInput holds the fields needed to add a shipping method
type ShippingMethodInput struct {
	Name             string
	ShippingOptionID uuid.UUID
	SellerID         uuid.UUID
	Amount           decimal.Decimal
	IsTaxInclusive   bool
	TaxLines         []valueobject.TaxLine
}

func newShippingMethod(cartID uuid.UUID, in ShippingMethodInput) (*ShippingMethod, error) {
	if in.ShippingOptionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHIPPING_OPTION", "Shipping option is required")
	}
	if in.Amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Shipping amount cannot be negative")
	}
	return &ShippingMethod{
		ID:               uuid.New(),
		CartID:           cartID,
		Name:             in.Name,
		ShippingOptionID: in.ShippingOptionID,
		SellerID:         in.SellerID,
		Amount:           in.Amount,
		IsTaxInclusive:   in.IsTaxInclusive,
		TaxLines:         in.TaxLines,
		CreatedAt:        time.Now(),
	}, nil
}

// Totals prices the shipping method in the given currency
func (m ShippingMethod) Totals(currency valueobject.Currency) valueobject.LineTotals {
	return valueobject.ComputeLineTotals(valueobject.LineInput{
		UnitPrice:      m.Amount,
		Quantity:       1,
		IsTaxInclusive: m.IsTaxInclusive,
		TaxLines:       m.TaxLines,
	}, currency)
}

// PaymentSessionStatus represents the status of a payment session
type PaymentSessionStatus string

const (
	PaymentSessionPending    PaymentSessionStatus = "pending"
	PaymentSessionAuthorized PaymentSessionStatus = "authorized"
	PaymentSessionCanceled   PaymentSessionStatus = "canceled"
	PaymentSessionError      PaymentSessionStatus = "error"
)

// PaymentSession is a customer's payment intent with one provider
type PaymentSession struct {
	ID           uuid.UUID
	CartID       uuid.UUID
	ProviderID   string
	Amount       decimal.Decimal
	CurrencyCode valueobject.Currency
	Status       PaymentSessionStatus
	CreatedAt    time.Time
}
