package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByID loads a cart with items, shipping methods and payment sessions
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	var model models.CartModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderByCreated).
		Preload("ShippingMethods", orderByCreated).
		Preload("PaymentSessions", orderByCreated).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces the cart and its children
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	model := models.CartModelFromDomain(c)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		for _, child := range []any{
			&models.CartLineItemModel{},
			&models.CartShippingMethodModel{},
			&models.PaymentSessionModel{},
		} {
			if err := tx.Where("cart_id = ?", model.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		if len(model.ShippingMethods) > 0 {
			if err := tx.Create(&model.ShippingMethods).Error; err != nil {
				return err
			}
		}
		if len(model.PaymentSessions) > 0 {
			if err := tx.Create(&model.PaymentSessions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetCompletedAt sets or clears completed_at without touching the children
func (r *GormCartRepository) SetCompletedAt(ctx context.Context, id uuid.UUID, completedAt *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CartModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"completed_at": completedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePaymentSessionStatus changes the status of one payment session
func (r *GormCartRepository) UpdatePaymentSessionStatus(ctx context.Context, sessionID uuid.UUID, status cart.PaymentSessionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentSessionModel{}).
		Where("id = ?", sessionID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func orderByCreated(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

var _ cart.Repository = (*GormCartRepository)(nil)
