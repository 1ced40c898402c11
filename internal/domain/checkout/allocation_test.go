package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftsWithTotals(totals ...string) []SellerDraft {
	out := make([]SellerDraft, len(totals))
	for i, total := range totals {
		out[i] = SellerDraft{SellerID: uuid.New(), Total: d(total)}
	}
	return out
}

func TestAllocatePayment(t *testing.T) {
	t.Run("single capture matches draft totals", func(t *testing.T) {
		drafts := draftsWithTotals("31.30", "10.05")
		allocs, err := AllocatePayment(drafts, "pay", []Capture{{ID: "cap", Amount: d("41.35")}}, valueobject.USD)
		require.NoError(t, err)
		require.Len(t, allocs, 2)
		assert.True(t, allocs.TotalForSeller(drafts[0].SellerID).Equal(d("31.3")))
		assert.True(t, allocs.TotalForSeller(drafts[1].SellerID).Equal(d("10.05")))
	})

	t.Run("each capture sums exactly", func(t *testing.T) {
		drafts := draftsWithTotals("1", "1", "1")
		captures := []Capture{{ID: "a", Amount: d("10.00")}, {ID: "b", Amount: d("0.05")}}
		allocs, err := AllocatePayment(drafts, "pay", captures, valueobject.USD)
		require.NoError(t, err)
		require.Len(t, allocs, 6)

		perCapture := map[string]decimal.Decimal{}
		for _, a := range allocs {
			perCapture[a.CaptureID] = perCapture[a.CaptureID].Add(a.Amount)
			assert.Equal(t, "pay", a.PaymentID)
		}
		assert.True(t, perCapture["a"].Equal(d("10")))
		assert.True(t, perCapture["b"].Equal(d("0.05")))
		assert.Len(t, allocs.ForSeller(drafts[2].SellerID), 2)
	})

	t.Run("zero-decimal currency", func(t *testing.T) {
		drafts := draftsWithTotals("700", "300")
		allocs, err := AllocatePayment(drafts, "pay", []Capture{{ID: "cap", Amount: d("999")}}, valueobject.JPY)
		require.NoError(t, err)
		assert.True(t, allocs[0].Amount.Equal(d("699")))
		assert.True(t, allocs[1].Amount.Equal(d("300")))
	})

	t.Run("nothing to allocate", func(t *testing.T) {
		_, err := AllocatePayment(draftsWithTotals("10"), "pay", nil, valueobject.USD)
		assert.ErrorIs(t, err, ErrNothingToAllocate)
		_, err = AllocatePayment(draftsWithTotals("0", "0"), "pay", []Capture{{ID: "c", Amount: d("1")}}, valueobject.USD)
		assert.ErrorIs(t, err, ErrNothingToAllocate)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestReconcile(t *testing.T) {
	sellerA, sellerB := uuid.New(), uuid.New()
	allocs := Allocations{
		{SellerID: sellerA, Amount: d("10.00")},
		{SellerID: sellerB, Amount: d("5.00")},
	}

	assert.Empty(t, Reconcile(valueobject.USD, map[uuid.UUID]decimal.Decimal{
		sellerA: d("10.01"),
		sellerB: d("5.00"),
	}, allocs))

	mismatches := Reconcile(valueobject.USD, map[uuid.UUID]decimal.Decimal{
		sellerA: d("10.00"),
		sellerB: d("5.50"),
	}, allocs)
	require.Len(t, mismatches, 1)
	assert.Equal(t, sellerB, mismatches[0].SellerID)
	assert.True(t, mismatches[0].Allocated.Equal(d("5")))
}
