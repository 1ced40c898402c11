// Package link models relationships between entities owned by different
// modules (seller, order, order set, cart, customer, product, shipping option).
// Each relationship is a row in one table; a definition declares which side may
// appear only once and the unique key column enforces it.
package link

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Side identifies one end of a link
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

// ErrDuplicateLink is returned when a link would violate its definition's uniqueness
var ErrDuplicateLink = shared.NewKindError(shared.KindConflict, "DUPLICATE_LINK", "Link already exists")

// Definition describes a kind of relationship
type Definition struct {
	Name        string
	LeftEntity  string
	RightEntity string
	// UniqueSide is the side whose id may appear in at most one link of this
	// definition. SideNone only forbids duplicate pairs.
	UniqueSide Side
}

// Known definitions
var (
	SellerOrder = Definition{Name: "seller_order", LeftEntity: "seller", RightEntity: "order", UniqueSide: SideRight}
	// OrderSetOrder: an order belongs to exactly one order set
	OrderSetOrder = Definition{Name: "order_set_order", LeftEntity: "order_set", RightEntity: "order", UniqueSide: SideRight}
	// OrderSetCart: a cart produces at most one order set
	OrderSetCart         = Definition{Name: "order_set_cart", LeftEntity: "order_set", RightEntity: "cart", UniqueSide: SideRight}
	OrderSetCustomer     = Definition{Name: "order_set_customer", LeftEntity: "order_set", RightEntity: "customer", UniqueSide: SideLeft}
	SellerProduct        = Definition{Name: "seller_product", LeftEntity: "seller", RightEntity: "product", UniqueSide: SideRight}
	SellerShippingOption = Definition{Name: "seller_shipping_option", LeftEntity: "seller", RightEntity: "shipping_option", UniqueSide: SideRight}
)

// Link is one relationship record
type Link struct {
	ID          uuid.UUID
	Name        string
	LeftEntity  string
	LeftID      uuid.UUID
	RightEntity string
	RightID     uuid.UUID
	UniqueKey   string
	CreatedAt   time.Time
}

// New builds a link of this definition
func (d Definition) New(leftID, rightID uuid.UUID) Link {
	return Link{
		ID:          uuid.New(),
		Name:        d.Name,
		LeftEntity:  d.LeftEntity,
		LeftID:      leftID,
		RightEntity: d.RightEntity,
		RightID:     rightID,
		UniqueKey:   d.UniqueKey(leftID, rightID),
		CreatedAt:   time.Now(),
	}
}

// UniqueKey returns the value stored in the unique key column
func (d Definition) UniqueKey(leftID, rightID uuid.UUID) string {
	switch d.UniqueSide {
	case SideLeft:
		return fmt.Sprintf("%s:L:%s", d.Name, leftID)
	case SideRight:
		return fmt.Sprintf("%s:R:%s", d.Name, rightID)
	default:
		return fmt.Sprintf("%s:%s:%s", d.Name, leftID, rightID)
	}
}

// Validate checks that both ends are set
func (l Link) Validate() error {
	if l.Name == "" {
		return shared.NewDomainError("INVALID_LINK", "Link name cannot be empty")
	}
	if l.LeftID == uuid.Nil || l.RightID == uuid.Nil {
		return shared.NewDomainError("INVALID_LINK", fmt.Sprintf("Link %s requires both ends", l.Name))
	}
	return nil
}

// LeftByRight maps each right id to its left id
func LeftByRight(links []Link) map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID, len(links))
	for _, l := range links {
		out[l.RightID] = l.LeftID
	}
	return out
}

// Store persists links
type Store interface {
	// Create inserts all links in one transaction. If any link violates a
	// unique key none are stored and ErrDuplicateLink is returned.
	Create(ctx context.Context, links ...Link) error

	// FindLinked returns links of def whose id on side is one of ids
	FindLinked(ctx context.Context, def Definition, side Side, ids ...uuid.UUID) ([]Link, error)

	// Dismiss hard-deletes the given links. Missing links are ignored.
	Dismiss(ctx context.Context, links ...Link) error
}
