package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CreateRateRequest is the input for creating a commission rate
type CreateRateRequest struct {
	Name              string                     `json:"name" binding:"required,max=200"`
	Type              string                     `json:"type" binding:"required,oneof=flat percentage"`
	SellerID          *uuid.UUID                 `json:"seller_id"`
	ProductCategoryID *uuid.UUID                 `json:"product_category_id"`
	ProductTypeID     *uuid.UUID                 `json:"product_type_id"`
	Percentage        decimal.Decimal            `json:"percentage" binding:"gte=0,lte=100"`
	IncludeTax        bool                       `json:"include_tax"`
	FlatPrices        map[string]decimal.Decimal `json:"flat_prices" binding:"omitempty,dive,keys,len=3,alpha,endkeys,gte=0"`
	MinPrices         map[string]decimal.Decimal `json:"min_prices" binding:"omitempty,dive,keys,len=3,alpha,endkeys,gte=0"`
	MaxPrices         map[string]decimal.Decimal `json:"max_prices" binding:"omitempty,dive,keys,len=3,alpha,endkeys,gte=0"`
	Disabled          bool                       `json:"disabled"`
}

// RateListFilter selects a page of rates
type RateListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RateResponse is the API view of a rate
type RateResponse struct {
	ID                uuid.UUID                  `json:"id"`
	Name              string                     `json:"name"`
	Type              string                     `json:"type"`
	SellerID          *uuid.UUID                 `json:"seller_id,omitempty"`
	ProductCategoryID *uuid.UUID                 `json:"product_category_id,omitempty"`
	ProductTypeID     *uuid.UUID                 `json:"product_type_id,omitempty"`
	Level             int                        `json:"level"`
	Percentage        decimal.Decimal            `json:"percentage"`
	IncludeTax        bool                       `json:"include_tax"`
	FlatPrices        map[string]decimal.Decimal `json:"flat_prices,omitempty"`
	MinPrices         map[string]decimal.Decimal `json:"min_prices,omitempty"`
	MaxPrices         map[string]decimal.Decimal `json:"max_prices,omitempty"`
	Enabled           bool                       `json:"enabled"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

// LineResponse is the API view of a commission line
type LineResponse struct {
	ID           uuid.UUID       `json:"id"`
	ItemLineID   uuid.UUID       `json:"item_line_id"`
	OrderID      uuid.UUID       `json:"order_id"`
	SellerID     uuid.UUID       `json:"seller_id"`
	RuleID       uuid.UUID       `json:"rule_id"`
	Value        decimal.Decimal `json:"value"`
	CurrencyCode string          `json:"currency_code"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToRateResponse converts a domain rate
func ToRateResponse(r *commission.Rate) RateResponse {
	return RateResponse{
		ID:                r.ID,
		Name:              r.Name,
		Type:              string(r.Type),
		SellerID:          r.Scope.SellerID,
		ProductCategoryID: r.Scope.ProductCategoryID,
		ProductTypeID:     r.Scope.ProductTypeID,
		Level:             r.Scope.Level(),
		Percentage:        r.Percentage,
		IncludeTax:        r.IncludeTax,
		FlatPrices:        fromPrices(r.FlatPrices),
		MinPrices:         fromPrices(r.MinPrices),
		MaxPrices:         fromPrices(r.MaxPrices),
		Enabled:           r.Enabled,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ToLineResponse converts a domain line
func ToLineResponse(l commission.Line) LineResponse {
	return LineResponse{
		ID:           l.ID,
		ItemLineID:   l.ItemLineID,
		OrderID:      l.OrderID,
		SellerID:     l.SellerID,
		RuleID:       l.RuleID,
		Value:        l.Value,
		CurrencyCode: string(l.CurrencyCode),
		CreatedAt:    l.CreatedAt,
	}
}

func toPrices(in map[string]decimal.Decimal) commission.Prices {
	if len(in) == 0 {
		return nil
	}
	out := make(commission.Prices, len(in))
	for code, amount := range in {
		out[valueobject.ParseCurrency(code)] = amount
	}
	return out
}

func fromPrices(in commission.Prices) map[string]decimal.Decimal {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for code, amount := range in {
		out[string(code)] = amount
	}
	return out
}
