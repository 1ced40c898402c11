package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCommissionRuleStore implements commission.RuleStore using GORM
type GormCommissionRuleStore struct {
	db *gorm.DB
}

// NewGormCommissionRuleStore creates a new GormCommissionRuleStore
func NewGormCommissionRuleStore(db *gorm.DB) *GormCommissionRuleStore {
	return &GormCommissionRuleStore{db: db}
}

// SelectRuleFor loads the enabled rates whose scope can match the line and
// lets the engine pick the most specific one
func (s *GormCommissionRuleStore) SelectRuleFor(ctx context.Context, sellerID uuid.UUID, categoryID, typeID *uuid.UUID) (*commission.Rate, error) {
	query := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("seller_id IS NULL OR seller_id = ?", sellerID)
	query = scopeColumn(query, "product_category_id", categoryID)
	query = scopeColumn(query, "product_type_id", typeID)

	var rows []models.CommissionRateModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	rates := make([]*commission.Rate, len(rows))
	for i := range rows {
		rates[i] = rows[i].ToDomain()
	}
	return commission.SelectMostSpecific(rates, sellerID, categoryID, typeID), nil
}

func scopeColumn(query *gorm.DB, column string, id *uuid.UUID) *gorm.DB {
	if id == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(fmt.Sprintf("%s IS NULL OR %s = ?", column, column), *id)
}

// Create inserts a rate
func (s *GormCommissionRuleStore) Create(ctx context.Context, rate *commission.Rate) error {
	return s.db.WithContext(ctx).Create(models.CommissionRateModelFromDomain(rate)).Error
}

// List returns a page of rates and the total count
func (s *GormCommissionRuleStore) List(ctx context.Context, filter shared.Filter) ([]*commission.Rate, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.CommissionRateModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Order(orderClause(filter.OrderBy, filter.OrderDir, CommissionRateSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.CommissionRateModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	rates := make([]*commission.Rate, len(rows))
	for i := range rows {
		rates[i] = rows[i].ToDomain()
	}
	return rates, total, nil
}

// GormCommissionLineRepository implements commission.LineRepository using GORM
type GormCommissionLineRepository struct {
	db *gorm.DB
}

// NewGormCommissionLineRepository creates a new GormCommissionLineRepository
func NewGormCommissionLineRepository(db *gorm.DB) *GormCommissionLineRepository {
	return &GormCommissionLineRepository{db: db}
}

// CreateLines inserts all lines in one batch
func (r *GormCommissionLineRepository) CreateLines(ctx context.Context, lines []commission.Line) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.CommissionLineModel, len(lines))
	for i, l := range lines {
		rows[i] = models.CommissionLineModelFromDomain(l)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

// FindByOrder returns the commission lines of an order, oldest first
func (r *GormCommissionLineRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]commission.Line, error) {
	var rows []models.CommissionLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]commission.Line, len(rows))
	for i := range rows {
		lines[i] = rows[i].ToDomain()
	}
	return lines, nil
}

var (
	_ commission.RuleStore      = (*GormCommissionRuleStore)(nil)
	_ commission.LineRepository = (*GormCommissionLineRepository)(nil)
)
