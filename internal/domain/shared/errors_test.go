package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches sentinel by code", func(t *testing.T) {
		err := NewKindError(KindNotFound, "NOT_FOUND", "order 42 not found")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrAlreadyExists))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("load cart: %w", ErrInvalidState)
		assert.True(t, errors.Is(err, ErrInvalidState))
	})
}

func TestDomainError_Kinds(t *testing.T) {
	cause := errors.New("connection refused")
	dep := NewDependencyError("PAYMENT_UNAVAILABLE", "payment provider unavailable", cause)

	assert.True(t, IsDependencyFailure(dep))
	assert.False(t, IsValidation(dep))
	assert.ErrorIs(t, dep, cause)
	assert.Equal(t, "payment provider unavailable: connection refused", dep.Error())

	val := NewDomainError("MISSING_SHIPPING_METHOD", "seller has no shipping method")
	assert.True(t, IsValidation(fmt.Errorf("partition: %w", val)))
	assert.Equal(t, KindValidation, KindOf(val))

	inv := NewInvariantError("PARTITION_INVARIANT_VIOLATED", "items lost")
	assert.True(t, IsInvariantViolation(inv))

	assert.Equal(t, KindDependency, KindOf(errors.New("boom")))
	assert.False(t, IsDependencyFailure(nil))
}

func TestDomainError_Rejection(t *testing.T) {
	err := fmt.Errorf("variant x, quantity 3: %w", ErrInsufficientStock)

	assert.True(t, IsRejection(err))
	assert.True(t, IsDependencyFailure(err))
	assert.False(t, IsRejection(NewDependencyError("INVENTORY_UNAVAILABLE", "inventory down", errors.New("timeout"))))
	assert.False(t, IsRejection(errors.New("boom")))
	assert.False(t, IsRejection(nil))
}
