package commission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}

func newRate(t *testing.T, scope Scope) *Rate {
	t.Helper()
	r, err := NewRate(RateParams{Name: "rate", Type: TypePercentage, Scope: scope, Percentage: d("5")})
	require.NoError(t, err)
	return r
}

func TestScope_Level(t *testing.T) {
	s, c, ty := ptr(uuid.New()), ptr(uuid.New()), ptr(uuid.New())
	tests := []struct {
		scope Scope
		want  int
	}{
		{Scope{SellerID: s, ProductCategoryID: c, ProductTypeID: ty}, 1},
		{Scope{SellerID: s, ProductCategoryID: c}, 2},
		{Scope{SellerID: s, ProductTypeID: ty}, 3},
		{Scope{SellerID: s}, 4},
		{Scope{ProductCategoryID: c, ProductTypeID: ty}, 5},
		{Scope{ProductCategoryID: c}, 6},
		{Scope{ProductTypeID: ty}, 7},
		{Scope{}, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.scope.Level())
	}
}

func TestSelectMostSpecific(t *testing.T) {
	sellerID, categoryID, typeID := uuid.New(), uuid.New(), uuid.New()

	platform := newRate(t, Scope{})
	category := newRate(t, Scope{ProductCategoryID: &categoryID})
	sellerOnly := newRate(t, Scope{SellerID: &sellerID})
	sellerType := newRate(t, Scope{SellerID: &sellerID, ProductTypeID: &typeID})
	otherSeller := newRate(t, Scope{SellerID: ptr(uuid.New()), ProductCategoryID: &categoryID, ProductTypeID: &typeID})

	t.Run("most specific matching rate wins", func(t *testing.T) {
		rates := []*Rate{platform, category, sellerOnly, sellerType, otherSeller}
		got := SelectMostSpecific(rates, sellerID, &categoryID, &typeID)
		assert.Equal(t, sellerType.ID, got.ID)
	})

	t.Run("seller scope beats category scope", func(t *testing.T) {
		got := SelectMostSpecific([]*Rate{category, sellerOnly, platform}, sellerID, &categoryID, nil)
		assert.Equal(t, sellerOnly.ID, got.ID)
	})

	t.Run("scoped field must equal line value", func(t *testing.T) {
		got := SelectMostSpecific([]*Rate{category, sellerType, platform}, sellerID, nil, nil)
		assert.Equal(t, platform.ID, got.ID)
	})

	t.Run("disabled rates are skipped", func(t *testing.T) {
		disabled := newRate(t, Scope{SellerID: &sellerID})
		disabled.Disable()
		got := SelectMostSpecific([]*Rate{disabled, platform}, sellerID, nil, nil)
		assert.Equal(t, platform.ID, got.ID)
	})

	t.Run("no match returns nil", func(t *testing.T) {
		assert.Nil(t, SelectMostSpecific([]*Rate{otherSeller}, sellerID, &categoryID, &typeID))
		assert.Nil(t, SelectMostSpecific(nil, sellerID, nil, nil))
	})

	t.Run("ties go to the oldest then lowest id", func(t *testing.T) {
		older := newRate(t, Scope{SellerID: &sellerID})
		newer := newRate(t, Scope{SellerID: &sellerID})
		older.CreatedAt = time.Now().Add(-time.Hour)
		got := SelectMostSpecific([]*Rate{newer, older}, sellerID, nil, nil)
		assert.Equal(t, older.ID, got.ID)

		same := time.Now()
		a := newRate(t, Scope{SellerID: &sellerID})
		b := newRate(t, Scope{SellerID: &sellerID})
		a.CreatedAt, b.CreatedAt = same, same
		want := a
		if b.ID.String() < a.ID.String() {
			want = b
		}
		assert.Equal(t, want.ID, SelectMostSpecific([]*Rate{a, b}, sellerID, nil, nil).ID)
		assert.Equal(t, want.ID, SelectMostSpecific([]*Rate{b, a}, sellerID, nil, nil).ID)
	})
}

func TestCalculate_Percentage(t *testing.T) {
	rate, err := NewRate(RateParams{
		Name:       "ten percent",
		Type:       TypePercentage,
		Percentage: d("10"),
		IncludeTax: true,
		MinPrices:  Prices{valueobject.USD: d("100")},
		MaxPrices:  Prices{valueobject.USD: d("500")},
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		total string
		want  string
	}{
		{"capped at max", "20000", "500"},
		{"raised to min", "500", "100"},
		{"inside bounds", "2500", "250"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Calculate(rate, ItemContext{CurrencyCode: valueobject.USD, Total: d(tt.total)})
			assert.True(t, res.Value.Equal(d(tt.want)), "got %s", res.Value)
			assert.False(t, res.ClampConflict)
		})
	}

	t.Run("bounds for other currencies do not apply", func(t *testing.T) {
		res := Calculate(rate, ItemContext{CurrencyCode: valueobject.EUR, Total: d("20000")})
		assert.True(t, res.Value.Equal(d("2000")))
	})
}

func TestCalculate_TaxBase(t *testing.T) {
	excl, err := NewRate(RateParams{Name: "excl", Type: TypePercentage, Percentage: d("10")})
	require.NoError(t, err)
	incl, err := NewRate(RateParams{Name: "incl", Type: TypePercentage, Percentage: d("10"), IncludeTax: true})
	require.NoError(t, err)

	item := ItemContext{CurrencyCode: valueobject.USD, Total: d("110.00"), TaxTotal: d("10.00")}
	assert.True(t, Calculate(excl, item).Value.Equal(d("10")))
	assert.True(t, Calculate(incl, item).Value.Equal(d("11")))

	item = ItemContext{CurrencyCode: valueobject.USD, Total: d("0.55")}
	assert.True(t, Calculate(excl, item).Value.Equal(d("0.06")))
}

func TestCalculate_Flat(t *testing.T) {
	rate, err := NewRate(RateParams{Name: "flat", Type: TypeFlat, FlatPrices: Prices{"usd": d("2.50")}})
	require.NoError(t, err)

	assert.True(t, Calculate(rate, ItemContext{CurrencyCode: valueobject.USD, Total: d("99")}).Value.Equal(d("2.5")))
	assert.True(t, Calculate(rate, ItemContext{CurrencyCode: valueobject.JPY, Total: d("99")}).Value.IsZero())
}

func TestCalculate_MinAboveMax(t *testing.T) {
	// bypass NewRate, which rejects this configuration
	rate := &Rate{
		Type:       TypePercentage,
		Percentage: d("10"),
		IncludeTax: true,
		MinPrices:  Prices{valueobject.USD: d("50")},
		MaxPrices:  Prices{valueobject.USD: d("20")},
		Enabled:    true,
	}
	res := Calculate(rate, ItemContext{CurrencyCode: valueobject.USD, Total: d("1000")})
	assert.True(t, res.Value.Equal(d("50")))
	assert.True(t, res.ClampConflict)
}

func TestNewRate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params RateParams
	}{
		{"empty name", RateParams{Type: TypeFlat}},
		{"unknown type", RateParams{Name: "x", Type: "tiered"}},
		{"percentage above 100", RateParams{Name: "x", Type: TypePercentage, Percentage: d("101")}},
		{"negative price", RateParams{Name: "x", Type: TypeFlat, FlatPrices: Prices{valueobject.USD: d("-1")}}},
		{"min above max", RateParams{
			Name: "x", Type: TypePercentage, Percentage: d("5"),
			MinPrices: Prices{valueobject.USD: d("10")},
			MaxPrices: Prices{valueobject.USD: d("5")},
		}},
		{"min above max across key case", RateParams{
			Name: "x", Type: TypePercentage, Percentage: d("5"),
			MinPrices: Prices{"usd": d("10")},
			MaxPrices: Prices{valueobject.USD: d("5")},
		}},
		{"currency given twice", RateParams{
			Name: "x", Type: TypeFlat,
			FlatPrices: Prices{"eur": d("1"), valueobject.EUR: d("2")},
		}},
		{"empty currency", RateParams{Name: "x", Type: TypeFlat, FlatPrices: Prices{"": d("1")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRate(tt.params)
			assert.ErrorIs(t, err, ErrInvalidRate)
			assert.True(t, shared.IsValidation(err))
		})
	}

	r, err := NewRate(RateParams{Name: " default ", Type: TypeFlat, Disabled: true})
	require.NoError(t, err)
	assert.Equal(t, "default", r.Name)
	assert.False(t, r.Enabled)
}

func TestNewLine(t *testing.T) {
	rate := newRate(t, Scope{})
	item := ItemContext{ItemID: uuid.New(), OrderID: uuid.New(), SellerID: uuid.New(), CurrencyCode: valueobject.USD}
	line := NewLine(item, rate, d("1.23"))
	assert.Equal(t, item.ItemID, line.ItemLineID)
	assert.Equal(t, rate.ID, line.RuleID)
	assert.Equal(t, valueobject.USD, line.CurrencyCode)
}
