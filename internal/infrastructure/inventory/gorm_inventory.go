// Package inventory is the default stock reservation adapter, backed by the
// inventory_levels and reservations tables.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/checkout"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/marketplace/backend/internal/infrastructure/resilience"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInventoryLevelNotFound is returned when a variant has no stock record in the sales channel
var ErrInventoryLevelNotFound = shared.NewDependencyError("INVENTORY_LEVEL_NOT_FOUND", "Variant is not stocked in this sales channel", nil)

// GormInventoryService implements checkout.InventoryService.
// A reservation succeeds only while reserved + quantity <= stocked.
type GormInventoryService struct {
	db     *gorm.DB
	guard  *resilience.Guard[[]uuid.UUID]
	logger *zap.Logger
}

// NewGormInventoryService creates the adapter. Every call runs through a
// breaker configured by settings.
func NewGormInventoryService(db *gorm.DB, settings resilience.Settings, logger *zap.Logger) *GormInventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Name == "" {
		settings.Name = "inventory"
	}
	return &GormInventoryService{
		db:     db,
		guard:  resilience.NewGuard[[]uuid.UUID](settings, logger),
		logger: logger,
	}
}

// Reserve holds stock for every item in one transaction
func (s *GormInventoryService) Reserve(ctx context.Context, items []checkout.ReservationItem, salesChannelID uuid.UUID) ([]uuid.UUID, error) {
	if len(items) == 0 {
		return nil, nil
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Reservation quantity for line %s must be positive", item.LineItemID))
		}
	}
	return s.guard.Do(ctx, func(ctx context.Context) ([]uuid.UUID, error) {
		return s.reserve(ctx, items, salesChannelID)
	})
}

func (s *GormInventoryService) reserve(ctx context.Context, items []checkout.ReservationItem, salesChannelID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(items))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, item := range items {
			var level models.InventoryLevelModel
			if err := tx.Where("variant_id = ? AND sales_channel_id = ?", item.VariantID, salesChannelID).
				First(&level).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("variant %s: %w", item.VariantID, ErrInventoryLevelNotFound)
				}
				return err
			}

			result := tx.Model(&models.InventoryLevelModel{}).
				Where("id = ? AND reserved_quantity + ? <= stocked_quantity", level.ID, item.Quantity).
				Updates(map[string]any{
					"reserved_quantity": gorm.Expr("reserved_quantity + ?", item.Quantity),
					"updated_at":        now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("variant %s, quantity %d: %w (%w)", item.VariantID, item.Quantity, shared.ErrInsufficientStock, checkout.ErrReservationFailed)
			}

			reservation := models.ReservationModel{
				ID:               uuid.New(),
				InventoryLevelID: level.ID,
				LineItemID:       item.LineItemID,
				Quantity:         item.Quantity,
				CreatedAt:        now,
			}
			if err := tx.Create(&reservation).Error; err != nil {
				return err
			}
			ids = append(ids, reservation.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Reserved inventory",
		zap.String("sales_channel_id", salesChannelID.String()),
		zap.Int("reservations", len(ids)),
	)
	return ids, nil
}

// Release deletes the reservations and returns their quantities to the levels
func (s *GormInventoryService) Release(ctx context.Context, reservationIDs []uuid.UUID) error {
	if len(reservationIDs) == 0 {
		return nil
	}
	_, err := s.guard.Do(ctx, func(ctx context.Context) ([]uuid.UUID, error) {
		return nil, s.release(ctx, reservationIDs)
	})
	return err
}

func (s *GormInventoryService) release(ctx context.Context, reservationIDs []uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservations []models.ReservationModel
		if err := tx.Where("id IN ?", reservationIDs).Find(&reservations).Error; err != nil {
			return err
		}
		now := time.Now()
		for _, r := range reservations {
			if err := tx.Model(&models.InventoryLevelModel{}).
				Where("id = ?", r.InventoryLevelID).
				Updates(map[string]any{
					"reserved_quantity": gorm.Expr("reserved_quantity - ?", r.Quantity),
					"updated_at":        now,
				}).Error; err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", reservationIDs).Delete(&models.ReservationModel{}).Error
	})
}

// SetStock creates or updates the stocked quantity of a variant in a sales channel
func (s *GormInventoryService) SetStock(ctx context.Context, variantID, salesChannelID uuid.UUID, stocked int64) error {
	if stocked < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Stocked quantity cannot be negative")
	}
	db := s.db.WithContext(ctx)
	var level models.InventoryLevelModel
	err := db.Where("variant_id = ? AND sales_channel_id = ?", variantID, salesChannelID).First(&level).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		level = models.InventoryLevelModel{
			BaseModel:       models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			VariantID:       variantID,
			SalesChannelID:  salesChannelID,
			StockedQuantity: stocked,
		}
		return db.Create(&level).Error
	case err != nil:
		return err
	}
	return db.Model(&level).Updates(map[string]any{
		"stocked_quantity": stocked,
		"updated_at":       time.Now(),
	}).Error
}

// Available returns stocked minus reserved for a variant, or 0 when it is not stocked
func (s *GormInventoryService) Available(ctx context.Context, variantID, salesChannelID uuid.UUID) (int64, error) {
	var level models.InventoryLevelModel
	err := s.db.WithContext(ctx).
		Where("variant_id = ? AND sales_channel_id = ?", variantID, salesChannelID).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return level.Available(), nil
}

var _ checkout.InventoryService = (*GormInventoryService)(nil)
