package seller

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Status represents whether a seller may take orders
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

var handlePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ErrSellerNotSelling is returned when a cart contains items of a seller that cannot take orders
var ErrSellerNotSelling = shared.NewDomainError("SELLER_NOT_ACTIVE", "Seller is not accepting orders")

// Seller is an independent vendor on the marketplace
type Seller struct {
	shared.BaseEntity
	Name   string
	Handle string
	Email  string
	Status Status
}

// NewSeller creates an active seller
func NewSeller(name, handle, email string) (*Seller, error) {
	name = strings.TrimSpace(name)
	handle = strings.ToLower(strings.TrimSpace(handle))
	if name == "" {
		return nil, shared.NewDomainError("INVALID_SELLER_NAME", "Seller name cannot be empty")
	}
	if !handlePattern.MatchString(handle) {
		return nil, shared.NewDomainError("INVALID_SELLER_HANDLE", "Seller handle must be lowercase words separated by dashes")
	}
	return &Seller{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Handle:     handle,
		Email:      strings.TrimSpace(email),
		Status:     StatusActive,
	}, nil
}

// CanSell reports whether the seller may receive new orders
func (s *Seller) CanSell() bool {
	return s.Status == StatusActive
}

// ChangeStatus moves the seller to another status
func (s *Seller) ChangeStatus(status Status) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_SELLER_STATUS", "Unknown seller status")
	}
	s.Status = status
	s.Touch()
	return nil
}

// Repository defines the interface for seller persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Seller, error)
	// FindByIDs returns the sellers that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Seller, error)
	Save(ctx context.Context, seller *Seller) error
}
