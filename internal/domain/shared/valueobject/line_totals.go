package valueobject

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// TaxLine is a tax applied to a line, rate in percent
type TaxLine struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

// Adjustment is a discount applied to a line
type Adjustment struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// LineTotals are the derived figures of a priced line. Carts and orders use
// the same computation so draft totals and persisted totals agree.
type LineTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Total         decimal.Decimal `json:"total"`
	// SubtotalExTax is Total minus TaxTotal
	SubtotalExTax decimal.Decimal `json:"subtotal_ex_tax"`
}

// LineInput describes a line to price
type LineInput struct {
	UnitPrice      decimal.Decimal
	Quantity       int64
	IsTaxInclusive bool
	TaxLines       []TaxLine
	Adjustments    []Adjustment
}

// SumTaxRates returns the combined rate of all tax lines in percent
func SumTaxRates(lines []TaxLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Rate)
	}
	return sum
}

// ComputeLineTotals prices a line. Every figure is rounded to the currency
// precision. Discounts are capped at the subtotal.
func ComputeLineTotals(in LineInput, currency Currency) LineTotals {
	subtotal := currency.Round(in.UnitPrice.Mul(decimal.NewFromInt(in.Quantity)))

	discount := decimal.Zero
	for _, adj := range in.Adjustments {
		discount = discount.Add(adj.Amount)
	}
	discount = currency.Round(discount)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	rate := SumTaxRates(in.TaxLines)
	var total, tax decimal.Decimal
	if in.IsTaxInclusive {
		total = subtotal.Sub(discount)
		net := total.Div(decimal.NewFromInt(1).Add(rate.Div(hundred)))
		tax = currency.Round(total.Sub(net))
	} else {
		discounted := subtotal.Sub(discount)
		tax = currency.Round(discounted.Mul(rate).Div(hundred))
		total = discounted.Add(tax)
	}

	return LineTotals{
		Subtotal:      subtotal,
		DiscountTotal: discount,
		TaxTotal:      tax,
		Total:         total,
		SubtotalExTax: total.Sub(tax),
	}
}
