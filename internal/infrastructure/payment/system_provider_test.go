package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/checkout"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/infrastructure/resilience"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemProvider_AuthorizeCapturesFullAmount(t *testing.T) {
	p := NewSystemProvider(resilience.Settings{}, nil)
	session := cart.PaymentSession{ID: uuid.New(), ProviderID: SystemProviderID, Status: cart.PaymentSessionPending}

	auth, err := p.Authorize(context.Background(), session, checkout.PaymentContext{
		CartID:       uuid.New(),
		CurrencyCode: valueobject.USD,
		Amount:       decimal.RequireFromString("42.10"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, auth.PaymentID)
	require.Len(t, auth.Captures, 1)
	assert.True(t, auth.CapturedTotal().Equal(decimal.RequireFromString("42.10")))

	require.NoError(t, p.Cancel(context.Background(), auth.PaymentID))
	assert.True(t, p.IsCanceled(auth.PaymentID))
	assert.NoError(t, p.Cancel(context.Background(), auth.PaymentID))
	assert.NoError(t, p.Cancel(context.Background(), "pay_unknown"))
}

func TestSystemProvider_RejectsForeignSessions(t *testing.T) {
	p := NewSystemProvider(resilience.Settings{}, nil)
	session := cart.PaymentSession{ProviderID: "stripe", Status: cart.PaymentSessionPending}

	_, err := p.Authorize(context.Background(), session, checkout.PaymentContext{Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestSystemProvider_DeclinesClosedSessions(t *testing.T) {
	p := NewSystemProvider(resilience.Settings{MaxFailures: 1}, nil)

	for _, status := range []cart.PaymentSessionStatus{cart.PaymentSessionCanceled, cart.PaymentSessionError} {
		t.Run(string(status), func(t *testing.T) {
			session := cart.PaymentSession{ID: uuid.New(), ProviderID: SystemProviderID, Status: status}
			_, err := p.Authorize(context.Background(), session, checkout.PaymentContext{Amount: decimal.NewFromInt(1)})
			require.Error(t, err)
			assert.ErrorIs(t, err, checkout.ErrPaymentDeclined)
			assert.True(t, shared.IsRejection(err))
		})
	}
}
