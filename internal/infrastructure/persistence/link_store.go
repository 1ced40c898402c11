package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/link"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLinkStore implements link.Store on the links table.
// The unique index on unique_key enforces every definition's cardinality.
type GormLinkStore struct {
	db *gorm.DB
}

// NewGormLinkStore creates a new GormLinkStore
func NewGormLinkStore(db *gorm.DB) *GormLinkStore {
	return &GormLinkStore{db: db}
}

// Create inserts all links in one transaction
func (s *GormLinkStore) Create(ctx context.Context, links ...link.Link) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]*models.LinkModel, len(links))
	seen := make(map[string]struct{}, len(links))
	for i, l := range links {
		if err := l.Validate(); err != nil {
			return err
		}
		if _, dup := seen[l.UniqueKey]; dup {
			return link.ErrDuplicateLink
		}
		seen[l.UniqueKey] = struct{}{}
		rows[i] = models.LinkModelFromDomain(l)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rows).Error
	})
	if IsUniqueViolation(err) {
		return link.ErrDuplicateLink
	}
	return err
}

// FindLinked returns links of def whose id on side is one of ids
func (s *GormLinkStore) FindLinked(ctx context.Context, def link.Definition, side link.Side, ids ...uuid.UUID) ([]link.Link, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	column := "left_id"
	if side == link.SideRight {
		column = "right_id"
	}

	var rows []models.LinkModel
	if err := s.db.WithContext(ctx).
		Where("name = ? AND "+column+" IN ?", def.Name, ids).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	links := make([]link.Link, len(rows))
	for i := range rows {
		links[i] = rows[i].ToDomain()
	}
	return links, nil
}

// Dismiss hard-deletes the given links by unique key. Missing links are ignored.
func (s *GormLinkStore) Dismiss(ctx context.Context, links ...link.Link) error {
	if len(links) == 0 {
		return nil
	}
	keys := make([]string, len(links))
	for i, l := range links {
		keys[i] = l.UniqueKey
	}
	return s.db.WithContext(ctx).Where("unique_key IN ?", keys).Delete(&models.LinkModel{}).Error
}

var _ link.Store = (*GormLinkStore)(nil)
