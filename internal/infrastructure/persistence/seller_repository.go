package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/seller"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSellerRepository implements seller.Repository using GORM
type GormSellerRepository struct {
	db *gorm.DB
}

// NewGormSellerRepository creates a new GormSellerRepository
func NewGormSellerRepository(db *gorm.DB) *GormSellerRepository {
	return &GormSellerRepository{db: db}
}

// FindByID finds a seller by its ID
func (r *GormSellerRepository) FindByID(ctx context.Context, id uuid.UUID) (*seller.Seller, error) {
	var model models.SellerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the sellers that exist among ids
func (r *GormSellerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]seller.Seller, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.SellerModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	sellers := make([]seller.Seller, len(rows))
	for i := range rows {
		sellers[i] = *rows[i].ToDomain()
	}
	return sellers, nil
}

// Save creates or updates a seller
func (r *GormSellerRepository) Save(ctx context.Context, s *seller.Seller) error {
	err := r.db.WithContext(ctx).Save(models.SellerModelFromDomain(s)).Error
	if IsUniqueViolation(err) {
		return shared.NewKindError(shared.KindConflict, "SELLER_HANDLE_TAKEN", "Seller handle is already in use")
	}
	return err
}

var _ seller.Repository = (*GormSellerRepository)(nil)
