package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/link"
)

// LinkModel is one cross-module relationship row. UniqueKey carries the
// definition's uniqueness rule so a single unique index enforces all of them.
type LinkModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"type:varchar(100);not null;index:idx_link_left,priority:1;index:idx_link_right,priority:1"`
	LeftEntity  string    `gorm:"type:varchar(50);not null"`
	LeftID      uuid.UUID `gorm:"type:uuid;not null;index:idx_link_left,priority:2"`
	RightEntity string    `gorm:"type:varchar(50);not null"`
	RightID     uuid.UUID `gorm:"type:uuid;not null;index:idx_link_right,priority:2"`
	UniqueKey   string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LinkModel) TableName() string {
	return "links"
}

// ToDomain converts the persistence model to a domain Link
func (m *LinkModel) ToDomain() link.Link {
	return link.Link{
		ID:          m.ID,
		Name:        m.Name,
		LeftEntity:  m.LeftEntity,
		LeftID:      m.LeftID,
		RightEntity: m.RightEntity,
		RightID:     m.RightID,
		UniqueKey:   m.UniqueKey,
		CreatedAt:   m.CreatedAt,
	}
}

// LinkModelFromDomain creates a new persistence model from a domain Link
func LinkModelFromDomain(l link.Link) *LinkModel {
	return &LinkModel{
		ID:          l.ID,
		Name:        l.Name,
		LeftEntity:  l.LeftEntity,
		LeftID:      l.LeftID,
		RightEntity: l.RightEntity,
		RightID:     l.RightID,
		UniqueKey:   l.UniqueKey,
		CreatedAt:   l.CreatedAt,
	}
}
