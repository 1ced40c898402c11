package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/checkout"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/marketplace/backend/internal/infrastructure/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupInventory(t *testing.T) (*GormInventoryService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.InventoryLevelModel{}, &models.ReservationModel{}))
	return NewGormInventoryService(db, resilience.DefaultSettings("inventory"), nil), db
}

func TestGormInventoryService_ReserveAndRelease(t *testing.T) {
	svc, db := setupInventory(t)
	ctx := context.Background()
	channel, mug, plate := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, svc.SetStock(ctx, mug, channel, 5))
	require.NoError(t, svc.SetStock(ctx, plate, channel, 1))

	ids, err := svc.Reserve(ctx, []checkout.ReservationItem{
		{VariantID: mug, Quantity: 3, LineItemID: uuid.New()},
		{VariantID: plate, Quantity: 1, LineItemID: uuid.New()},
	}, channel)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	available, err := svc.Available(ctx, mug, channel)
	require.NoError(t, err)
	assert.Equal(t, int64(2), available)

	require.NoError(t, svc.Release(ctx, ids))
	available, err = svc.Available(ctx, mug, channel)
	require.NoError(t, err)
	assert.Equal(t, int64(5), available)

	var count int64
	require.NoError(t, db.Model(&models.ReservationModel{}).Count(&count).Error)
	assert.Zero(t, count)

	// releasing twice is a no-op
	assert.NoError(t, svc.Release(ctx, ids))
}

func TestGormInventoryService_InsufficientStockIsAtomic(t *testing.T) {
	svc, _ := setupInventory(t)
	ctx := context.Background()
	channel, mug, plate := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, svc.SetStock(ctx, mug, channel, 5))
	require.NoError(t, svc.SetStock(ctx, plate, channel, 1))

	_, err := svc.Reserve(ctx, []checkout.ReservationItem{
		{VariantID: mug, Quantity: 2, LineItemID: uuid.New()},
		{VariantID: plate, Quantity: 2, LineItemID: uuid.New()},
	}, channel)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.ErrorIs(t, err, checkout.ErrReservationFailed)
	assert.True(t, shared.IsDependencyFailure(err))
	assert.True(t, shared.IsRejection(err))

	available, err := svc.Available(ctx, mug, channel)
	require.NoError(t, err)
	assert.Equal(t, int64(5), available)
}

func TestGormInventoryService_UnknownVariant(t *testing.T) {
	svc, _ := setupInventory(t)

	_, err := svc.Reserve(context.Background(), []checkout.ReservationItem{
		{VariantID: uuid.New(), Quantity: 1, LineItemID: uuid.New()},
	}, uuid.New())
	assert.ErrorIs(t, err, ErrInventoryLevelNotFound)
}

func TestGormInventoryService_InvalidQuantity(t *testing.T) {
	svc, _ := setupInventory(t)

	_, err := svc.Reserve(context.Background(), []checkout.ReservationItem{
		{VariantID: uuid.New(), Quantity: 0, LineItemID: uuid.New()},
	}, uuid.New())
	assert.True(t, shared.IsValidation(err))
}
