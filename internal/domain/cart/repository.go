package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for cart persistence
type Repository interface {
	// FindByID loads the full cart graph
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)

	// Save creates or replaces the cart and its children
	Save(ctx context.Context, cart *Cart) error

	// SetCompletedAt sets or clears the completion timestamp without touching children
	SetCompletedAt(ctx context.Context, id uuid.UUID, completedAt *time.Time) error

	// UpdatePaymentSessionStatus changes the status of one payment session
	UpdatePaymentSessionStatus(ctx context.Context, sessionID uuid.UUID, status PaymentSessionStatus) error
}
