package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	Status          order.Status               `gorm:"type:varchar(20);not null;default:'pending';index"`
	CustomerID      *uuid.UUID                 `gorm:"type:uuid;index"`
	Email           string                     `gorm:"type:varchar(255)"`
	RegionID        uuid.UUID                  `gorm:"type:uuid;not null"`
	SalesChannelID  uuid.UUID                  `gorm:"type:uuid;not null"`
	CurrencyCode    valueobject.Currency       `gorm:"type:varchar(3);not null"`
	ShippingAddress valueobject.Address        `gorm:"type:jsonb"`
	BillingAddress  valueobject.Address        `gorm:"type:jsonb"`
	ItemSubtotal    decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	ItemTaxTotal    decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingTotal   decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountTotal   decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	Total           decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	Items           []OrderLineItemModel       `gorm:"foreignKey:OrderID;references:ID"`
	ShippingMethods []OrderShippingMethodModel `gorm:"foreignKey:OrderID;references:ID"`
	Transactions    []PaymentTransactionModel  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order aggregate.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Status:            m.Status,
		CustomerID:        m.CustomerID,
		Email:             m.Email,
		RegionID:          m.RegionID,
		SalesChannelID:    m.SalesChannelID,
		CurrencyCode:      m.CurrencyCode,
		ShippingAddress:   m.ShippingAddress,
		BillingAddress:    m.BillingAddress,
		ItemSubtotal:      m.ItemSubtotal,
		ItemTaxTotal:      m.ItemTaxTotal,
		ShippingTotal:     m.ShippingTotal,
		DiscountTotal:     m.DiscountTotal,
		Total:             m.Total,
		Items:             make([]order.LineItem, len(m.Items)),
		ShippingMethods:   make([]order.ShippingMethod, len(m.ShippingMethods)),
		Transactions:      make([]order.PaymentTransaction, len(m.Transactions)),
	}
	for i := range m.Items {
		o.Items[i] = m.Items[i].ToDomain()
	}
	for i := range m.ShippingMethods {
		o.ShippingMethods[i] = m.ShippingMethods[i].ToDomain()
	}
	for i := range m.Transactions {
		o.Transactions[i] = m.Transactions[i].ToDomain()
	}
	return o
}

// OrderModelFromDomain creates a persistence model, children included, from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		Status:          o.Status,
		CustomerID:      o.CustomerID,
		Email:           o.Email,
		RegionID:        o.RegionID,
		SalesChannelID:  o.SalesChannelID,
		CurrencyCode:    o.CurrencyCode,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		ItemSubtotal:    o.ItemSubtotal,
		ItemTaxTotal:    o.ItemTaxTotal,
		ShippingTotal:   o.ShippingTotal,
		DiscountTotal:   o.DiscountTotal,
		Total:           o.Total,
		Items:           make([]OrderLineItemModel, len(o.Items)),
		ShippingMethods: make([]OrderShippingMethodModel, len(o.ShippingMethods)),
		Transactions:    make([]PaymentTransactionModel, len(o.Transactions)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i, item := range o.Items {
		m.Items[i] = OrderLineItemModel{
			ID:                item.ID,
			OrderID:           o.ID,
			CartLineItemID:    item.CartLineItemID,
			Position:          i,
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
			Subtotal:          item.Subtotal,
			DiscountTotal:     item.DiscountTotal,
			TaxTotal:          item.TaxTotal,
			Total:             item.Total,
		}
	}
	for i, sm := range o.ShippingMethods {
		m.ShippingMethods[i] = OrderShippingMethodModel{
			ID:               sm.ID,
			OrderID:          o.ID,
			Name:             sm.Name,
			ShippingOptionID: sm.ShippingOptionID,
			Amount:           sm.Amount,
			IsTaxInclusive:   sm.IsTaxInclusive,
			TaxLines:         sm.TaxLines,
			TaxTotal:         sm.TaxTotal,
			Total:            sm.Total,
		}
	}
	for i, tx := range o.Transactions {
		m.Transactions[i] = PaymentTransactionModel{
			ID:           tx.ID,
			OrderID:      o.ID,
			Amount:       tx.Amount,
			CurrencyCode: tx.CurrencyCode,
			Reference:    tx.Reference,
			ReferenceID:  tx.ReferenceID,
			PaymentID:    tx.PaymentID,
			CreatedAt:    tx.CreatedAt,
		}
	}
	return m
}

// OrderLineItemModel is an immutable snapshot of a cart line on an order
type OrderLineItemModel struct {
	ID                uuid.UUID                `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID                `gorm:"type:uuid;not null;index"`
	CartLineItemID    uuid.UUID                `gorm:"type:uuid;not null"`
	Position          int                      `gorm:"not null;default:0"`
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
	Subtotal          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	DiscountTotal     decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	TaxTotal          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Total             decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *OrderLineItemModel) ToDomain() order.LineItem {
	return order.LineItem{
		ID:                m.ID,
		OrderID:           m.OrderID,
		CartLineItemID:    m.CartLineItemID,
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
		Subtotal:          m.Subtotal,
		DiscountTotal:     m.DiscountTotal,
		TaxTotal:          m.TaxTotal,
		Total:             m.Total,
	}
}

// OrderShippingMethodModel is the shipping method of an order
type OrderShippingMethodModel struct {
	ID               uuid.UUID             `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name             string                `gorm:"type:varchar(255)"`
	ShippingOptionID uuid.UUID             `gorm:"type:uuid;not null"`
	Amount           decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	IsTaxInclusive   bool                  `gorm:"not null;default:false"`
	TaxLines         []valueobject.TaxLine `gorm:"type:jsonb;serializer:json"`
	TaxTotal         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Total            decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderShippingMethodModel) TableName() string {
	return "order_shipping_methods"
}

// ToDomain converts the persistence model to a domain ShippingMethod
func (m *OrderShippingMethodModel) ToDomain() order.ShippingMethod {
	return order.ShippingMethod{
		ID:               m.ID,
		OrderID:          m.OrderID,
		Name:             m.Name,
		ShippingOptionID: m.ShippingOptionID,
		Amount:           m.Amount,
		IsTaxInclusive:   m.IsTaxInclusive,
		TaxLines:         m.TaxLines,
		TaxTotal:         m.TaxTotal,
		Total:            m.Total,
	}
}

// PaymentTransactionModel books part of a payment capture to an order
type PaymentTransactionModel struct {
	ID           uuid.UUID            `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	CurrencyCode valueobject.Currency `gorm:"type:varchar(3);not null"`
	Reference    string               `gorm:"type:varchar(50);not null"`
	ReferenceID  string               `gorm:"type:varchar(255);not null"`
	PaymentID    string               `gorm:"type:varchar(255);not null;index"`
	CreatedAt    time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentTransactionModel) TableName() string {
	return "order_payment_transactions"
}

// ToDomain converts the persistence model to a domain PaymentTransaction
func (m *PaymentTransactionModel) ToDomain() order.PaymentTransaction {
	return order.PaymentTransaction{
		ID:           m.ID,
		OrderID:      m.OrderID,
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		Reference:    m.Reference,
		ReferenceID:  m.ReferenceID,
		PaymentID:    m.PaymentID,
		CreatedAt:    m.CreatedAt,
	}
}

// OrderSetModel groups the orders of one checkout
type OrderSetModel struct {
	BaseModel
}

// TableName returns the table name for GORM
func (OrderSetModel) TableName() string {
	return "order_sets"
}

// ToDomain converts the persistence model to a domain OrderSet
func (m *OrderSetModel) ToDomain() *order.OrderSet {
	return &order.OrderSet{BaseEntity: m.BaseModel.ToDomain()}
}

// OrderSetModelFromDomain creates a persistence model from a domain OrderSet
func OrderSetModelFromDomain(s *order.OrderSet) *OrderSetModel {
	m := &OrderSetModel{}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
