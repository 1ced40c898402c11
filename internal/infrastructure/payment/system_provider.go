// Package payment holds the payment provider adapters used by checkout.
package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/checkout"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/resilience"
	"go.uber.org/zap"
)

// SystemProviderID identifies the built-in provider
const SystemProviderID = "pp_system_default"

// SystemProvider authorizes every session and captures its full amount
// immediately. It stands in for a real gateway in development and tests.
type SystemProvider struct {
	guard  *resilience.Guard[*checkout.Authorization]
	logger *zap.Logger

	mu       sync.Mutex
	payments map[string]*checkout.Authorization
	canceled map[string]struct{}
}

// NewSystemProvider creates the provider
func NewSystemProvider(settings resilience.Settings, logger *zap.Logger) *SystemProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Name == "" {
		settings.Name = "payment." + SystemProviderID
	}
	return &SystemProvider{
		guard:    resilience.NewGuard[*checkout.Authorization](settings, logger),
		logger:   logger,
		payments: make(map[string]*checkout.Authorization),
		canceled: make(map[string]struct{}),
	}
}

// Authorize authorizes the session and captures pctx.Amount in one capture
func (p *SystemProvider) Authorize(ctx context.Context, session cart.PaymentSession, pctx checkout.PaymentContext) (*checkout.Authorization, error) {
	if session.ProviderID != SystemProviderID {
		return nil, shared.NewDomainError("UNSUPPORTED_PAYMENT_PROVIDER", "Payment session belongs to provider "+session.ProviderID)
	}
	if session.Status == cart.PaymentSessionCanceled || session.Status == cart.PaymentSessionError {
		return nil, fmt.Errorf("payment session %s is %s: %w", session.ID, session.Status, checkout.ErrPaymentDeclined)
	}
	if pctx.Amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}

	return p.guard.Do(ctx, func(ctx context.Context) (*checkout.Authorization, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		auth := &checkout.Authorization{
			PaymentID: "pay_" + uuid.NewString(),
			Captures: []checkout.Capture{{
				ID:     "cap_" + uuid.NewString(),
				Amount: pctx.Amount,
			}},
		}
		p.mu.Lock()
		p.payments[auth.PaymentID] = auth
		p.mu.Unlock()

		p.logger.Info("Payment authorized",
			zap.String("payment_id", auth.PaymentID),
			zap.String("cart_id", pctx.CartID.String()),
			zap.String("amount", pctx.Amount.String()),
			zap.String("currency", pctx.CurrencyCode.String()),
		)
		return auth, nil
	})
}

// Cancel voids a payment. Unknown or already canceled payments are ignored.
func (p *SystemProvider) Cancel(ctx context.Context, paymentID string) error {
	_, err := p.guard.Do(ctx, func(context.Context) (*checkout.Authorization, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.payments[paymentID]; !ok {
			return nil, nil
		}
		delete(p.payments, paymentID)
		p.canceled[paymentID] = struct{}{}
		p.logger.Info("Payment canceled", zap.String("payment_id", paymentID))
		return nil, nil
	})
	return err
}

// IsCanceled reports whether Cancel voided the payment
func (p *SystemProvider) IsCanceled(paymentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.canceled[paymentID]
	return ok
}

var _ checkout.PaymentProvider = (*SystemProvider)(nil)
