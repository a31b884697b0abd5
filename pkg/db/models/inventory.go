package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory holds the on-hand quantity for one variant.
type Inventory struct {
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	Quantity  int       `gorm:"column:quantity;not null;check:chk_inventories_quantity,quantity >= 0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
