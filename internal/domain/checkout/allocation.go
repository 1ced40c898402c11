package checkout

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ErrNothingToAllocate is returned when there is no captured amount or no
// positive draft total to split it by.
var ErrNothingToAllocate = shared.NewDomainError("NOTHING_TO_ALLOCATE", "Payment has no captures or cart total is zero")

// Capture is one captured amount of an authorized payment
type Capture struct {
	ID     string
	Amount decimal.Decimal
}

// Allocation is the share of one capture booked to one seller's order
type Allocation struct {
	SellerID  uuid.UUID
	PaymentID string
	CaptureID string
	Amount    decimal.Decimal
}

// Allocations is the result of AllocatePayment
type Allocations []Allocation

// ForSeller returns the allocations of one seller
func (as Allocations) ForSeller(sellerID uuid.UUID) []Allocation {
	out := make([]Allocation, 0)
	for _, a := range as {
		if a.SellerID == sellerID {
			out = append(out, a)
		}
	}
	return out
}

// TotalForSeller sums the allocations of one seller
func (as Allocations) TotalForSeller(sellerID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range as.ForSeller(sellerID) {
		sum = sum.Add(a.Amount)
	}
	return sum
}

// AllocatePayment slices every capture across the drafts in proportion to
// the draft totals. For each capture the slices add up to the capture amount
// exactly, at currency precision.
func AllocatePayment(drafts []SellerDraft, paymentID string, captures []Capture, currency valueobject.Currency) (Allocations, error) {
	if len(captures) == 0 || len(drafts) == 0 {
		return nil, ErrNothingToAllocate
	}
	weights := make([]decimal.Decimal, len(drafts))
	for i, d := range drafts {
		weights[i] = d.Total
	}
	if DraftsTotal(drafts).Sign() <= 0 {
		return nil, ErrNothingToAllocate
	}

	out := make(Allocations, 0, len(drafts)*len(captures))
	for _, c := range captures {
		capture, err := valueobject.NewMoney(c.Amount, currency)
		if err != nil {
			return nil, err
		}
		parts, err := capture.AllocateProportional(weights)
		if err != nil {
			return nil, fmt.Errorf("allocate capture %s: %w", c.ID, err)
		}
		for i, part := range parts {
			out = append(out, Allocation{
				SellerID:  drafts[i].SellerID,
				PaymentID: paymentID,
				CaptureID: c.ID,
				Amount:    part.Amount(),
			})
		}
	}
	return out, nil
}

// Mismatch is a seller whose order total and allocated payment disagree by
// more than one minor unit
type Mismatch struct {
	SellerID   uuid.UUID
	OrderTotal decimal.Decimal
	Allocated  decimal.Decimal
}

// Reconcile compares each seller's order total with the payment allocated
// to it. orderTotals is keyed by seller id.
func Reconcile(currency valueobject.Currency, orderTotals map[uuid.UUID]decimal.Decimal, allocations Allocations) []Mismatch {
	var out []Mismatch
	for sellerID, total := range orderTotals {
		allocated := allocations.TotalForSeller(sellerID)
		if !currency.WithinMinorUnit(total, allocated) {
			out = append(out, Mismatch{SellerID: sellerID, OrderTotal: total, Allocated: allocated})
		}
	}
	return out
}
