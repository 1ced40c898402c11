package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Line is the commission computed for one order line. Lines are immutable.
type Line struct {
	ID           uuid.UUID
	ItemLineID   uuid.UUID
	OrderID      uuid.UUID
	SellerID     uuid.UUID
	RuleID       uuid.UUID
	Value        decimal.Decimal
	CurrencyCode valueobject.Currency
	CreatedAt    time.Time
}

// NewLine records the result of applying rule to item
func NewLine(item ItemContext, rule *Rate, value decimal.Decimal) Line {
	return Line{
		ID:           uuid.New(),
		ItemLineID:   item.ItemID,
		OrderID:      item.OrderID,
		SellerID:     item.SellerID,
		RuleID:       rule.ID,
		Value:        value,
		CurrencyCode: item.CurrencyCode,
		CreatedAt:    time.Now(),
	}
}

// RuleStore persists commission rates
type RuleStore interface {
	// SelectRuleFor returns the most specific enabled rate for the line
	// attributes, or nil when no rate applies
	SelectRuleFor(ctx context.Context, sellerID uuid.UUID, categoryID, typeID *uuid.UUID) (*Rate, error)
	Create(ctx context.Context, rate *Rate) error
	List(ctx context.Context, filter shared.Filter) ([]*Rate, int64, error)
}

// LineRepository persists commission lines
type LineRepository interface {
	// CreateLines inserts all lines in one batch
	CreateLines(ctx context.Context, lines []Line) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Line, error)
}
