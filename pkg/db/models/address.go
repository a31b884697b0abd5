package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a shipping destination owned by a user. Addresses are managed
// elsewhere; checkout only reads them.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Recipient  string    `gorm:"column:recipient;not null"`
	Line1      string    `gorm:"column:line1;not null"`
	City       string    `gorm:"column:city;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
