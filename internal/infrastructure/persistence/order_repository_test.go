package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, titles ...string) *order.Order {
	t.Helper()
	customerID := uuid.New()
	o, err := order.NewOrder(order.Header{
		CustomerID:     &customerID,
		Email:          "buyer@example.com",
		RegionID:       uuid.New(),
		SalesChannelID: uuid.New(),
		CurrencyCode:   valueobject.EUR,
	})
	require.NoError(t, err)
	for _, title := range titles {
		o.AddItem(order.LineItem{
			CartLineItemID: uuid.New(),
			Title:          title,
			VariantID:      uuid.New(),
			ProductID:      uuid.New(),
			Quantity:       1,
			UnitPrice:      decimal.NewFromInt(10),
		})
	}
	o.AddShippingMethod(order.ShippingMethod{Name: "Standard", ShippingOptionID: uuid.New(), Amount: decimal.NewFromInt(4)})
	o.AddTransaction("pay_1", "cap_1", o.Total)
	return o
}

func TestGormOrderRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	first := newTestOrder(t, "a", "b", "c")
	second := newTestOrder(t, "d")
	require.NoError(t, repo.CreateOrders(ctx, []*order.Order{first, second}))

	found, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, found.Status)
	require.Len(t, found.Items, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{found.Items[0].Title, found.Items[1].Title, found.Items[2].Title})
	require.Len(t, found.ShippingMethods, 1)
	require.Len(t, found.Transactions, 1)
	assert.Equal(t, order.ReferenceCapture, found.Transactions[0].Reference)
	assert.True(t, found.Total.Equal(decimal.NewFromInt(34)), "got %s", found.Total)
	assert.True(t, found.PaidTotal().Equal(found.Total))

	t.Run("FindByIDs preserves order and skips missing", func(t *testing.T) {
		orders, err := repo.FindByIDs(ctx, []uuid.UUID{second.ID, uuid.New(), first.ID})
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, second.ID, orders[0].ID)
		assert.Equal(t, first.ID, orders[1].ID)
	})
}

func TestGormOrderRepository_DeleteOrders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newTestOrder(t, "a", "b")
	require.NoError(t, repo.CreateOrders(ctx, []*order.Order{o}))

	require.NoError(t, repo.DeleteOrders(ctx, []uuid.UUID{o.ID}))
	_, err := repo.FindByID(ctx, o.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var children int64
	require.NoError(t, db.Table("order_line_items").Where("order_id = ?", o.ID).Count(&children).Error)
	assert.Zero(t, children)

	// deleting again is a no-op
	assert.NoError(t, repo.DeleteOrders(ctx, []uuid.UUID{o.ID}))
	assert.NoError(t, repo.DeleteOrders(ctx, nil))
}

func TestGormOrderRepository_OrderSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	set := order.NewOrderSet()
	require.NoError(t, repo.CreateOrderSet(ctx, set))

	found, err := repo.FindOrderSetByID(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, set.ID, found.ID)

	require.NoError(t, repo.DeleteOrderSet(ctx, set.ID))
	_, err = repo.FindOrderSetByID(ctx, set.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, repo.DeleteOrderSet(ctx, set.ID))
}
