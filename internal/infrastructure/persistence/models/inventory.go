package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryLevelModel is the stock of one variant in one sales channel
type InventoryLevelModel struct {
	BaseModel
	VariantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_level_variant_channel,priority:1"`
	SalesChannelID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_level_variant_channel,priority:2"`
	StockedQuantity  int64     `gorm:"not null;default:0"`
	ReservedQuantity int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryLevelModel) TableName() string {
	return "inventory_levels"
}

// Available returns the quantity that can still be reserved
func (m *InventoryLevelModel) Available() int64 {
	return m.StockedQuantity - m.ReservedQuantity
}

// ReservationModel holds stock for one order line until fulfilment or release
type ReservationModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	InventoryLevelID uuid.UUID `gorm:"type:uuid;not null;index"`
	LineItemID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity         int64     `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "reservations"
}
