package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeLineTotals(t *testing.T) {
	t.Run("tax exclusive with discount", func(t *testing.T) {
		totals := ComputeLineTotals(LineInput{
			UnitPrice:   dec("20.00"),
			Quantity:    2,
			TaxLines:    []TaxLine{{Code: "VAT", Rate: dec("10")}},
			Adjustments: []Adjustment{{Code: "PROMO", Amount: dec("5")}},
		}, USD)

		assert.True(t, totals.Subtotal.Equal(dec("40")))
		assert.True(t, totals.DiscountTotal.Equal(dec("5")))
		assert.True(t, totals.TaxTotal.Equal(dec("3.5")))
		assert.True(t, totals.Total.Equal(dec("38.5")))
		assert.True(t, totals.SubtotalExTax.Equal(dec("35")))
	})

	t.Run("tax inclusive", func(t *testing.T) {
		totals := ComputeLineTotals(LineInput{
			UnitPrice:      dec("110.00"),
			Quantity:       1,
			IsTaxInclusive: true,
			TaxLines:       []TaxLine{{Code: "VAT", Rate: dec("10")}},
		}, USD)

		assert.True(t, totals.Total.Equal(dec("110")))
		assert.True(t, totals.TaxTotal.Equal(dec("10")))
		assert.True(t, totals.SubtotalExTax.Equal(dec("100")))
	})

	t.Run("rounds to currency precision", func(t *testing.T) {
		totals := ComputeLineTotals(LineInput{
			UnitPrice: dec("333"),
			Quantity:  1,
			TaxLines:  []TaxLine{{Code: "VAT", Rate: dec("8.5")}, {Code: "CITY", Rate: dec("1.5")}},
		}, JPY)

		assert.True(t, totals.TaxTotal.Equal(dec("33")))
		assert.True(t, totals.Total.Equal(dec("366")))
	})

	t.Run("discount capped at subtotal", func(t *testing.T) {
		totals := ComputeLineTotals(LineInput{
			UnitPrice:   dec("5"),
			Quantity:    1,
			Adjustments: []Adjustment{{Code: "BIG", Amount: dec("9")}},
		}, USD)

		assert.True(t, totals.Total.IsZero())
		assert.True(t, totals.DiscountTotal.Equal(dec("5")))
	})

	assert.True(t, SumTaxRates(nil).Equal(decimal.Zero))
}
