package valueobject

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	KRW Currency = "KRW"
)

// zeroDecimalCurrencies have no minor unit
var zeroDecimalCurrencies = map[Currency]struct{}{
	JPY: {},
	KRW: {},
}

// ParseCurrency normalizes a currency code to upper case
func ParseCurrency(code string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(code)))
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// Precision returns the number of decimal places of the currency's minor unit
func (c Currency) Precision() int32 {
	if _, ok := zeroDecimalCurrencies[ParseCurrency(string(c))]; ok {
		return 0
	}
	return 2
}

// MinorUnit returns the smallest representable amount, e.g. 0.01 for USD
func (c Currency) MinorUnit() decimal.Decimal {
	return decimal.New(1, -c.Precision())
}

// Round rounds an amount half away from zero to the currency precision
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.Precision())
}

// WithinMinorUnit reports whether a and b differ by at most one minor unit
func (c Currency) WithinMinorUnit(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(c.MinorUnit())
}
