package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
)

// AddressRepository reads the shipping addresses checkout may ship to.
type AddressRepository interface {
	WithTx(tx *gorm.DB) AddressRepository
	FindOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository builds an address repository bound to the provided DB.
func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) WithTx(tx *gorm.DB) AddressRepository {
	if tx == nil {
		return r
	}
	return &addressRepository{db: tx}
}

func (r *addressRepository) FindOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}
