package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CartModel is the persistence model for the Cart aggregate root.
type CartModel struct {
	AggregateModel
	CustomerID      *uuid.UUID                `gorm:"type:uuid;index"`
	Email           string                    `gorm:"type:varchar(255)"`
	RegionID        uuid.UUID                 `gorm:"type:uuid;not null"`
	SalesChannelID  uuid.UUID                 `gorm:"type:uuid;not null"`
	CurrencyCode    valueobject.Currency      `gorm:"type:varchar(3);not null"`
	ShippingAddress valueobject.Address       `gorm:"type:jsonb"`
	BillingAddress  valueobject.Address       `gorm:"type:jsonb"`
	CompletedAt     *time.Time                `gorm:"index"`
	Items           []CartLineItemModel       `gorm:"foreignKey:CartID;references:ID"`
	ShippingMethods []CartShippingMethodModel `gorm:"foreignKey:CartID;references:ID"`
	PaymentSessions []PaymentSessionModel     `gorm:"foreignKey:CartID;references:ID"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// ToDomain converts the persistence model to a domain Cart aggregate.
func (m *CartModel) ToDomain() *cart.Cart {
	c := &cart.Cart{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		Email:             m.Email,
		RegionID:          m.RegionID,
		SalesChannelID:    m.SalesChannelID,
		CurrencyCode:      m.CurrencyCode,
		ShippingAddress:   m.ShippingAddress,
		BillingAddress:    m.BillingAddress,
		CompletedAt:       m.CompletedAt,
		Items:             make([]cart.LineItem, len(m.Items)),
		ShippingMethods:   make([]cart.ShippingMethod, len(m.ShippingMethods)),
		PaymentSessions:   make([]cart.PaymentSession, len(m.PaymentSessions)),
	}
	for i := range m.Items {
		c.Items[i] = m.Items[i].ToDomain()
	}
	for i := range m.ShippingMethods {
		c.ShippingMethods[i] = m.ShippingMethods[i].ToDomain()
	}
	for i := range m.PaymentSessions {
		c.PaymentSessions[i] = m.PaymentSessions[i].ToDomain()
	}
	return c
}

// CartModelFromDomain creates a persistence model, children included, from a domain Cart.
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{
		CustomerID:      c.CustomerID,
		Email:           c.Email,
		RegionID:        c.RegionID,
		SalesChannelID:  c.SalesChannelID,
		CurrencyCode:    c.CurrencyCode,
		ShippingAddress: c.ShippingAddress,
		BillingAddress:  c.BillingAddress,
		CompletedAt:     c.CompletedAt,
		Items:           make([]CartLineItemModel, len(c.Items)),
		ShippingMethods: make([]CartShippingMethodModel, len(c.ShippingMethods)),
		PaymentSessions: make([]PaymentSessionModel, len(c.PaymentSessions)),
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	for i, item := range c.Items {
		m.Items[i] = CartLineItemModel{
			ID:                item.ID,
			CartID:            c.ID,
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
			CreatedAt:         item.CreatedAt,
		}
	}
	for i, sm := range c.ShippingMethods {
		m.ShippingMethods[i] = CartShippingMethodModel{
			ID:               sm.ID,
			CartID:           c.ID,
			Name:             sm.Name,
			ShippingOptionID: sm.ShippingOptionID,
			Amount:           sm.Amount,
			IsTaxInclusive:   sm.IsTaxInclusive,
			TaxLines:         sm.TaxLines,
			CreatedAt:        sm.CreatedAt,
		}
	}
	for i, ps := range c.PaymentSessions {
		m.PaymentSessions[i] = PaymentSessionModel{
			ID:           ps.ID,
			CartID:       c.ID,
			ProviderID:   ps.ProviderID,
			Amount:       ps.Amount,
			CurrencyCode: ps.CurrencyCode,
			Status:       ps.Status,
			CreatedAt:    ps.CreatedAt,
		}
	}
	return m
}

// CartLineItemModel is a cart line. The seller is not stored, it is resolved
// through seller_product links at checkout.
type CartLineItemModel struct {
	ID                uuid.UUID                `gorm:"type:uuid;primary_key"`
	CartID            uuid.UUID                `gorm:"type:uuid;not null;index"`
	Title             string                   `gorm:"type:varchar(255)"`
	VariantID         uuid.UUID                `gorm:"type:uuid;not null"`
	ProductID         uuid.UUID                `gorm:"type:uuid;not null"`
	ProductCategoryID *uuid.UUID               `gorm:"type:uuid"`
	ProductTypeID     *uuid.UUID               `gorm:"type:uuid"`
	Quantity          int64                    `gorm:"not null"`
	UnitPrice         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	IsTaxInclusive    bool                     `gorm:"not null;default:false"`
	TaxLines          []valueobject.TaxLine    `gorm:"type:jsonb;serializer:json"`
	Adjustments       []valueobject.Adjustment `gorm:"type:jsonb;serializer:json"`
	CreatedAt         time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartLineItemModel) TableName() string {
	return "cart_line_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *CartLineItemModel) ToDomain() cart.LineItem {
	return cart.LineItem{
		ID:                m.ID,
		CartID:            m.CartID,
		Title:             m.Title,
		VariantID:         m.VariantID,
		ProductID:         m.ProductID,
		ProductCategoryID: m.ProductCategoryID,
		ProductTypeID:     m.ProductTypeID,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		IsTaxInclusive:    m.IsTaxInclusive,
		TaxLines:          m.TaxLines,
		Adjustments:       m.Adjustments,
		CreatedAt:         m.CreatedAt,
	}
}

// CartShippingMethodModel is a shipping method chosen on a cart
type CartShippingMethodModel struct {
	ID               uuid.UUID             `gorm:"type:uuid;primary_key"`
	CartID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name             string                `gorm:"type:varchar(255)"`
	ShippingOptionID uuid.UUID             `gorm:"type:uuid;not null"`
	Amount           decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	IsTaxInclusive   bool                  `gorm:"not null;default:false"`
	TaxLines         []valueobject.TaxLine `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartShippingMethodModel) TableName() string {
	return "cart_shipping_methods"
}

// ToDomain converts the persistence model to a domain ShippingMethod
func (m *CartShippingMethodModel) ToDomain() cart.ShippingMethod {
	return cart.ShippingMethod{
		ID:               m.ID,
		CartID:           m.CartID,
		Name:             m.Name,
		ShippingOptionID: m.ShippingOptionID,
		Amount:           m.Amount,
		IsTaxInclusive:   m.IsTaxInclusive,
		TaxLines:         m.TaxLines,
		CreatedAt:        m.CreatedAt,
	}
}

// PaymentSessionModel is a cart's payment session
type PaymentSessionModel struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primary_key"`
	CartID       uuid.UUID                 `gorm:"type:uuid;not null;index"`
	ProviderID   string                    `gorm:"type:varchar(100);not null"`
	Amount       decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	CurrencyCode valueobject.Currency      `gorm:"type:varchar(3);not null"`
	Status       cart.PaymentSessionStatus `gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentSessionModel) TableName() string {
	return "payment_sessions"
}

// ToDomain converts the persistence model to a domain PaymentSession
func (m *PaymentSessionModel) ToDomain() cart.PaymentSession {
	return cart.PaymentSession{
		ID:           m.ID,
		CartID:       m.CartID,
		ProviderID:   m.ProviderID,
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
	}
}
