package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("ShippingMethods").
		Preload("Transactions", orderByCreated)
}

// FindByID loads an order with items, shipping methods and transactions
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.withChildren(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the orders that exist among ids, in the order of ids
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*order.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.OrderModel
	if err := r.withChildren(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*order.Order, len(rows))
	for i := range rows {
		byID[rows[i].ID] = rows[i].ToDomain()
	}
	orders := make([]*order.Order, 0, len(rows))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

// CreateOrders inserts all orders and their children in one transaction
func (r *GormOrderRepository) CreateOrders(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	heads := make([]*models.OrderModel, 0, len(orders))
	var (
		items        []models.OrderLineItemModel
		methods      []models.OrderShippingMethodModel
		transactions []models.PaymentTransactionModel
	)
	for _, o := range orders {
		m := models.OrderModelFromDomain(o)
		heads = append(heads, m)
		items = append(items, m.Items...)
		methods = append(methods, m.ShippingMethods...)
		transactions = append(transactions, m.Transactions...)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(heads).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if len(methods) > 0 {
			if err := tx.Create(&methods).Error; err != nil {
				return err
			}
		}
		if len(transactions) > 0 {
			if err := tx.Create(&transactions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteOrders removes orders and their children. Missing ids are ignored.
func (r *GormOrderRepository) DeleteOrders(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{
			&models.OrderLineItemModel{},
			&models.OrderShippingMethodModel{},
			&models.PaymentTransactionModel{},
		} {
			if err := tx.Where("order_id IN ?", ids).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", ids).Delete(&models.OrderModel{}).Error
	})
}

// CreateOrderSet inserts an order set
func (r *GormOrderRepository) CreateOrderSet(ctx context.Context, set *order.OrderSet) error {
	return r.db.WithContext(ctx).Create(models.OrderSetModelFromDomain(set)).Error
}

// FindOrderSetByID loads an order set
func (r *GormOrderRepository) FindOrderSetByID(ctx context.Context, id uuid.UUID) (*order.OrderSet, error) {
	var model models.OrderSetModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// DeleteOrderSet removes an order set. A missing id is ignored.
func (r *GormOrderRepository) DeleteOrderSet(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OrderSetModel{}).Error
}

var _ order.Repository = (*GormOrderRepository)(nil)
