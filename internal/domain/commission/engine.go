package commission

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SelectMostSpecific returns the enabled rate with the lowest precedence
// level that matches the line, or nil when none does.
func SelectMostSpecific(rates []*Rate, sellerID uuid.UUID, categoryID, typeID *uuid.UUID) *Rate {
	var best *Rate
	bestLevel := 0
	for _, r := range rates {
		if r == nil || !r.Enabled || !r.Scope.Matches(sellerID, categoryID, typeID) {
			continue
		}
		level := r.Scope.Level()
		if best == nil || level < bestLevel || (level == bestLevel && r.Less(best)) {
			best = r
			bestLevel = level
		}
	}
	return best
}

// ItemContext is the order line data a rate is applied to
type ItemContext struct {
	ItemID       uuid.UUID
	OrderID      uuid.UUID
	SellerID     uuid.UUID
	CategoryID   *uuid.UUID
	TypeID       *uuid.UUID
	CurrencyCode valueobject.Currency
	Total        decimal.Decimal
	TaxTotal     decimal.Decimal
}

// Result is the outcome of applying a rate to one line
type Result struct {
	Value decimal.Decimal
	// ClampConflict is set when the rate's minimum exceeds its maximum for the
	// line currency; the minimum wins.
	ClampConflict bool
}

// Calculate applies a rate to a line, rounded to the currency precision
func Calculate(rate *Rate, item ItemContext) Result {
	currency := item.CurrencyCode
	if rate.Type == TypeFlat {
		v, ok := rate.FlatPrices.For(currency)
		if !ok {
			return Result{Value: decimal.Zero}
		}
		return Result{Value: currency.Round(v)}
	}

	base := item.Total
	if !rate.IncludeTax {
		base = item.Total.Sub(item.TaxTotal)
	}
	value := base.Mul(rate.Percentage).Div(decimal.NewFromInt(100))

	var res Result
	maxV, hasMax := rate.MaxPrices.For(currency)
	if hasMax && value.GreaterThan(maxV) {
		value = maxV
	}
	minV, hasMin := rate.MinPrices.For(currency)
	if hasMin && value.LessThan(minV) {
		value = minV
	}
	if hasMin && hasMax && minV.GreaterThan(maxV) {
		res.ClampConflict = true
	}
	res.Value = currency.Round(value)
	return res
}
