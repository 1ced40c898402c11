package models

import (
	"github.com/marketplace/backend/internal/domain/seller"
)

// SellerModel is the persistence model for the Seller entity.
type SellerModel struct {
	BaseModel
	Name   string        `gorm:"type:varchar(200);not null"`
	Handle string        `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email  string        `gorm:"type:varchar(255)"`
	Status seller.Status `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (SellerModel) TableName() string {
	return "sellers"
}

// ToDomain converts the persistence model to a domain Seller entity.
func (m *SellerModel) ToDomain() *seller.Seller {
	return &seller.Seller{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Handle:     m.Handle,
		Email:      m.Email,
		Status:     m.Status,
	}
}

// SellerModelFromDomain creates a new persistence model from a domain Seller entity.
func SellerModelFromDomain(s *seller.Seller) *SellerModel {
	m := &SellerModel{
		Name:   s.Name,
		Handle: s.Handle,
		Email:  s.Email,
		Status: s.Status,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
