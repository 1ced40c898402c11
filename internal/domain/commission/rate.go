// Package commission selects the applicable commission rule for an order
// line and computes the amount the platform keeps.
package commission

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Type is how a rate computes its value
type Type string

const (
	TypeFlat       Type = "flat"
	TypePercentage Type = "percentage"
)

// IsValid checks if the type is a valid Type
func (t Type) IsValid() bool {
	return t == TypeFlat || t == TypePercentage
}

// ErrInvalidRate is returned for rates that cannot be saved
var ErrInvalidRate = shared.NewDomainError("INVALID_COMMISSION_RATE", "Invalid commission rate")

// Scope restricts a rate to a seller, product category and/or product type.
// A nil field matches anything.
type Scope struct {
	SellerID          *uuid.UUID `json:"seller_id,omitempty"`
	ProductCategoryID *uuid.UUID `json:"product_category_id,omitempty"`
	ProductTypeID     *uuid.UUID `json:"product_type_id,omitempty"`
}

// Level returns the precedence of the scope, 1 being the most specific
// and 8 the platform default.
//
//	1 seller+category+type  2 seller+category  3 seller+type  4 seller
//	5 category+type         6 category         7 type         8 default
func (s Scope) Level() int {
	seller, category, typ := s.SellerID != nil, s.ProductCategoryID != nil, s.ProductTypeID != nil
	switch {
	case seller && category && typ:
		return 1
	case seller && category:
		return 2
	case seller && typ:
		return 3
	case seller:
		return 4
	case category && typ:
		return 5
	case category:
		return 6
	case typ:
		return 7
	default:
		return 8
	}
}

// Matches reports whether every scoped field equals the line's value
func (s Scope) Matches(sellerID uuid.UUID, categoryID, typeID *uuid.UUID) bool {
	if s.SellerID != nil && *s.SellerID != sellerID {
		return false
	}
	if s.ProductCategoryID != nil && (categoryID == nil || *s.ProductCategoryID != *categoryID) {
		return false
	}
	if s.ProductTypeID != nil && (typeID == nil || *s.ProductTypeID != *typeID) {
		return false
	}
	return true
}

// Prices holds one amount per currency
type Prices map[valueobject.Currency]decimal.Decimal

// For returns the amount configured for a currency
func (p Prices) For(currency valueobject.Currency) (decimal.Decimal, bool) {
	v, ok := p[valueobject.ParseCurrency(string(currency))]
	return v, ok
}

// Rate is a commission rule
type Rate struct {
	shared.BaseEntity
	Name       string
	Type       Type
	Scope      Scope
	Percentage decimal.Decimal
	IncludeTax bool
	// FlatPrices is the fixed commission per currency for flat rates
	FlatPrices Prices
	MinPrices  Prices
	MaxPrices  Prices
	Enabled    bool
}

// RateParams holds the fields needed to create a rate
type RateParams struct {
	Name       string
	Type       Type
	Scope      Scope
	Percentage decimal.Decimal
	IncludeTax bool
	FlatPrices Prices
	MinPrices  Prices
	MaxPrices  Prices
	Disabled   bool
}

// NewRate validates params and creates an enabled rate unless Disabled is set
func NewRate(p RateParams) (*Rate, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, invalidRate("name cannot be empty")
	}
	if !p.Type.IsValid() {
		return nil, invalidRate(fmt.Sprintf("unknown type %q", p.Type))
	}
	if p.Type == TypePercentage {
		if p.Percentage.IsNegative() || p.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, invalidRate("percentage must be between 0 and 100")
		}
	}
	var prices [3]Prices
	for i, set := range []Prices{p.FlatPrices, p.MinPrices, p.MaxPrices} {
		normalized, err := normalizePrices(set)
		if err != nil {
			return nil, err
		}
		prices[i] = normalized
	}
	flat, mins, maxes := prices[0], prices[1], prices[2]
	if err := validatePrices(flat, mins, maxes); err != nil {
		return nil, err
	}

	return &Rate{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Type:       p.Type,
		Scope:      p.Scope,
		Percentage: p.Percentage,
		IncludeTax: p.IncludeTax,
		FlatPrices: flat,
		MinPrices:  mins,
		MaxPrices:  maxes,
		Enabled:    !p.Disabled,
	}, nil
}

func validatePrices(flat, mins, maxes Prices) error {
	for _, set := range []Prices{flat, mins, maxes} {
		for cur, v := range set {
			if v.IsNegative() {
				return invalidRate(fmt.Sprintf("%s price cannot be negative", cur))
			}
		}
	}
	for cur, lo := range mins {
		if hi, ok := maxes[cur]; ok && lo.GreaterThan(hi) {
			return invalidRate(fmt.Sprintf("%s minimum %s exceeds maximum %s", cur, lo, hi))
		}
	}
	return nil
}

// normalizePrices upper-cases the currency keys. Two keys naming the same
// currency are rejected.
func normalizePrices(p Prices) (Prices, error) {
	out := make(Prices, len(p))
	for cur, v := range p {
		code := valueobject.ParseCurrency(string(cur))
		if code == "" {
			return nil, invalidRate("price currency cannot be empty")
		}
		if _, dup := out[code]; dup {
			return nil, invalidRate(fmt.Sprintf("%s price is given twice", code))
		}
		out[code] = v
	}
	return out, nil
}

func invalidRate(reason string) *shared.DomainError {
	return shared.NewDomainError(ErrInvalidRate.Code, "Invalid commission rate: "+reason)
}

// Less orders rates of the same level: oldest first, then lowest id
func (r *Rate) Less(other *Rate) bool {
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.Before(other.CreatedAt)
	}
	return r.ID.String() < other.ID.String()
}

// Disable stops the rate from being selected
func (r *Rate) Disable() {
	r.Enabled = false
	r.Touch()
}
