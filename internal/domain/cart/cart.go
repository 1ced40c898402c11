package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Cart errors
var (
	ErrCartCompleted    = shared.NewKindError(shared.KindState, "INVALID_STATE", "Cart is already completed")
	ErrLineItemNotFound = shared.NewKindError(shared.KindNotFound, "LINE_ITEM_NOT_FOUND", "Line item not found")
	ErrNoPaymentSession = shared.NewDomainError("NO_PAYMENT_SESSION", "Cart has no pending payment session")
)

// Cart is the pre-checkout aggregate holding items from any number of sellers
type Cart struct {
	shared.BaseAggregateRoot
	CustomerID      *uuid.UUID
	Email           string
	RegionID        uuid.UUID
	SalesChannelID  uuid.UUID
	CurrencyCode    valueobject.Currency
	ShippingAddress valueobject.Address
	BillingAddress  valueobject.Address
	Items           []LineItem
	ShippingMethods []ShippingMethod
	PaymentSessions []PaymentSession
	CompletedAt     *time.Time
}

// NewCart creates an empty cart
func NewCart(currency valueobject.Currency, regionID, salesChannelID uuid.UUID) (*Cart, error) {
	currency = valueobject.ParseCurrency(string(currency))
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency code cannot be empty")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RegionID:          regionID,
		SalesChannelID:    salesChannelID,
		CurrencyCode:      currency,
		Items:             make([]LineItem, 0),
		ShippingMethods:   make([]ShippingMethod, 0),
		PaymentSessions:   make([]PaymentSession, 0),
	}, nil
}

// IsCompleted returns true once checkout has completed the cart
func (c *Cart) IsCompleted() bool {
	return c.CompletedAt != nil
}

// SetCustomer attaches a customer and contact email
func (c *Cart) SetCustomer(customerID uuid.UUID, email string) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	c.CustomerID = &customerID
	c.Email = email
	c.Touch()
	return nil
}

// SetAddresses sets the shipping and billing addresses
func (c *Cart) SetAddresses(shipping, billing valueobject.Address) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	c.ShippingAddress = shipping
	c.BillingAddress = billing
	c.Touch()
	return nil
}

// AddLineItem adds an item. Quantity must be positive and the price non-negative.
func (c *Cart) AddLineItem(in LineItemInput) (*LineItem, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	item, err := newLineItem(c.ID, in)
	if err != nil {
		return nil, err
	}
	c.Items = append(c.Items, *item)
	c.Touch()
	return item, nil
}

// UpdateLineItemQuantity changes the quantity of an existing item
func (c *Cart) UpdateLineItemQuantity(itemID uuid.UUID, quantity int64) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			c.Items[idx].Quantity = quantity
			c.Touch()
			return nil
		}
	}
	return ErrLineItemNotFound
}

// RemoveLineItem removes an item from the cart
func (c *Cart) RemoveLineItem(itemID uuid.UUID) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	for idx, item := range c.Items {
		if item.ID == itemID {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			c.Touch()
			return nil
		}
	}
	return ErrLineItemNotFound
}

// AddShippingMethod adds a shipping method. A method for the same shipping
// option, or for the same resolved seller, is replaced.
func (c *Cart) AddShippingMethod(in ShippingMethodInput) (*ShippingMethod, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	method, err := newShippingMethod(c.ID, in)
	if err != nil {
		return nil, err
	}

	kept := c.ShippingMethods[:0]
	for _, m := range c.ShippingMethods {
		if m.ShippingOptionID == method.ShippingOptionID {
			continue
		}
		if method.SellerID != uuid.Nil && m.SellerID == method.SellerID {
			continue
		}
		kept = append(kept, m)
	}
	c.ShippingMethods = append(kept, *method)
	c.Touch()
	return method, nil
}

// AddPaymentSession opens a payment session for the cart total
func (c *Cart) AddPaymentSession(providerID string) (*PaymentSession, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if providerID == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Payment provider cannot be empty")
	}
	for idx := range c.PaymentSessions {
		if c.PaymentSessions[idx].Status == PaymentSessionPending {
			c.PaymentSessions[idx].Status = PaymentSessionCanceled
		}
	}
	session := PaymentSession{
		ID:           uuid.New(),
		CartID:       c.ID,
		ProviderID:   providerID,
		Amount:       c.Total(),
		CurrencyCode: c.CurrencyCode,
		Status:       PaymentSessionPending,
		CreatedAt:    time.Now(),
	}
	c.PaymentSessions = append(c.PaymentSessions, session)
	c.Touch()
	return &session, nil
}

// ActivePaymentSession returns the most recent pending or authorized session
func (c *Cart) ActivePaymentSession() (*PaymentSession, error) {
	for idx := len(c.PaymentSessions) - 1; idx >= 0; idx-- {
		s := c.PaymentSessions[idx]
		if s.Status == PaymentSessionPending || s.Status == PaymentSessionAuthorized {
			return &s, nil
		}
	}
	return nil, ErrNoPaymentSession
}

// MarkCompleted records checkout completion. It can only happen once.
func (c *Cart) MarkCompleted(at time.Time) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	c.CompletedAt = &at
	c.Touch()
	return nil
}

// Reopen clears the completion mark. Used only to undo a failed checkout.
func (c *Cart) Reopen() {
	c.CompletedAt = nil
	c.Touch()
}

// ResolveSellers stamps seller ids on items and shipping methods from the
// product and shipping option lookups. Unknown entries keep uuid.Nil.
func (c *Cart) ResolveSellers(productSellers, optionSellers map[uuid.UUID]uuid.UUID) {
	for idx := range c.Items {
		if sellerID, ok := productSellers[c.Items[idx].ProductID]; ok {
			c.Items[idx].SellerID = sellerID
		}
	}
	for idx := range c.ShippingMethods {
		if sellerID, ok := optionSellers[c.ShippingMethods[idx].ShippingOptionID]; ok {
			c.ShippingMethods[idx].SellerID = sellerID
		}
	}
}

// ProductIDs returns the distinct product ids in item order
func (c *Cart) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Items))
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// ShippingOptionIDs returns the shipping option ids in method order
func (c *Cart) ShippingOptionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.ShippingMethods))
	for _, m := range c.ShippingMethods {
		ids = append(ids, m.ShippingOptionID)
	}
	return ids
}

// ItemTotal sums the item totals
func (c *Cart) ItemTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Totals(c.CurrencyCode).Total)
	}
	return sum
}

// ShippingTotal sums the shipping method totals
func (c *Cart) ShippingTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range c.ShippingMethods {
		sum = sum.Add(m.Totals(c.CurrencyCode).Total)
	}
	return sum
}

// Total is the amount the customer pays
func (c *Cart) Total() decimal.Decimal {
	return c.ItemTotal().Add(c.ShippingTotal())
}

func (c *Cart) ensureOpen() error {
	if c.IsCompleted() {
		return ErrCartCompleted
	}
	return nil
}

