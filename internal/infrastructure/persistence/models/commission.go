package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CommissionRateModel is the persistence model for a commission rate.
// Per-currency prices are stored as JSON objects keyed by currency code.
type CommissionRateModel struct {
	BaseModel
	Name              string            `gorm:"type:varchar(200);not null"`
	Type              commission.Type   `gorm:"type:varchar(20);not null"`
	SellerID          *uuid.UUID        `gorm:"type:uuid;index"`
	ProductCategoryID *uuid.UUID        `gorm:"type:uuid;index"`
	ProductTypeID     *uuid.UUID        `gorm:"type:uuid;index"`
	Percentage        decimal.Decimal   `gorm:"type:decimal(9,4);not null;default:0"`
	IncludeTax        bool              `gorm:"not null;default:false"`
	FlatPrices        commission.Prices `gorm:"type:jsonb;serializer:json"`
	MinPrices         commission.Prices `gorm:"type:jsonb;serializer:json"`
	MaxPrices         commission.Prices `gorm:"type:jsonb;serializer:json"`
	Enabled           bool              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CommissionRateModel) TableName() string {
	return "commission_rates"
}

// ToDomain converts the persistence model to a domain Rate
func (m *CommissionRateModel) ToDomain() *commission.Rate {
	return &commission.Rate{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Type:       m.Type,
		Scope: commission.Scope{
			SellerID:          m.SellerID,
			ProductCategoryID: m.ProductCategoryID,
			ProductTypeID:     m.ProductTypeID,
		},
		Percentage: m.Percentage,
		IncludeTax: m.IncludeTax,
		FlatPrices: nonNilPrices(m.FlatPrices),
		MinPrices:  nonNilPrices(m.MinPrices),
		MaxPrices:  nonNilPrices(m.MaxPrices),
		Enabled:    m.Enabled,
	}
}

// CommissionRateModelFromDomain creates a new persistence model from a domain Rate
func CommissionRateModelFromDomain(r *commission.Rate) *CommissionRateModel {
	m := &CommissionRateModel{
		Name:              r.Name,
		Type:              r.Type,
		SellerID:          r.Scope.SellerID,
		ProductCategoryID: r.Scope.ProductCategoryID,
		ProductTypeID:     r.Scope.ProductTypeID,
		Percentage:        r.Percentage,
		IncludeTax:        r.IncludeTax,
		FlatPrices:        r.FlatPrices,
		MinPrices:         r.MinPrices,
		MaxPrices:         r.MaxPrices,
		Enabled:           r.Enabled,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

func nonNilPrices(p commission.Prices) commission.Prices {
	if p == nil {
		return commission.Prices{}
	}
	return p
}

// CommissionLineModel is an immutable commission line
type CommissionLineModel struct {
	ID           uuid.UUID            `gorm:"type:uuid;primary_key"`
	ItemLineID   uuid.UUID            `gorm:"type:uuid;not null"`
	OrderID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	SellerID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	RuleID       uuid.UUID            `gorm:"type:uuid;not null"`
	Value        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	CurrencyCode valueobject.Currency `gorm:"type:varchar(3);not null"`
	CreatedAt    time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CommissionLineModel) TableName() string {
	return "commission_lines"
}

// ToDomain converts the persistence model to a domain Line
func (m *CommissionLineModel) ToDomain() commission.Line {
	return commission.Line{
		ID:           m.ID,
		ItemLineID:   m.ItemLineID,
		OrderID:      m.OrderID,
		SellerID:     m.SellerID,
		RuleID:       m.RuleID,
		Value:        m.Value,
		CurrencyCode: m.CurrencyCode,
		CreatedAt:    m.CreatedAt,
	}
}

// CommissionLineModelFromDomain creates a new persistence model from a domain Line
func CommissionLineModelFromDomain(l commission.Line) CommissionLineModel {
	return CommissionLineModel{
		ID:           l.ID,
		ItemLineID:   l.ItemLineID,
		OrderID:      l.OrderID,
		SellerID:     l.SellerID,
		RuleID:       l.RuleID,
		Value:        l.Value,
		CurrencyCode: l.CurrencyCode,
		CreatedAt:    l.CreatedAt,
	}
}
