package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	g := NewGuard[int](Settings{Name: "payment", MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	boom := errors.New("connection refused")
	calls := 0
	fail := func(context.Context) (int, error) {
		calls++
		return 0, boom
	}

	_, err := g.Do(context.Background(), fail)
	assert.ErrorIs(t, err, boom)
	_, err = g.Do(context.Background(), fail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "open", g.State())

	_, err = g.Do(context.Background(), fail)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, shared.IsDependencyFailure(err))
	assert.Equal(t, 2, calls)
}

func TestGuard_ValidationErrorsDoNotTrip(t *testing.T) {
	g := NewGuard[string](Settings{Name: "inventory", MaxFailures: 1}, nil)
	rejected := shared.NewDomainError("INVALID_QUANTITY", "bad quantity")

	for range 3 {
		_, err := g.Do(context.Background(), func(context.Context) (string, error) { return "", rejected })
		assert.ErrorIs(t, err, rejected)
	}
	assert.Equal(t, "closed", g.State())

	got, err := g.Do(context.Background(), func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestGuard_Timeout(t *testing.T) {
	g := NewGuard[int](Settings{Name: "slow", Timeout: 20 * time.Millisecond}, nil)

	_, err := g.Do(context.Background(), func(ctx context.Context) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return 1, nil
		}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuard_RejectionsDoNotTrip(t *testing.T) {
	g := NewGuard[int](Settings{Name: "inventory", MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	outOfStock := func(context.Context) (int, error) {
		return 0, fmt.Errorf("variant v1, quantity 3: %w", shared.ErrInsufficientStock)
	}

	for range 3 {
		_, err := g.Do(context.Background(), outOfStock)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	}
	assert.Equal(t, "closed", g.State())

	got, err := g.Do(context.Background(), func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
