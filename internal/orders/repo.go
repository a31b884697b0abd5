package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcore-backend/pkg/db/models"
	"github.com/angelmondragon/shopcore-backend/pkg/enums"
	"github.com/angelmondragon/shopcore-backend/pkg/pagination"
)

// Repository persists orders, their items and their payment.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Order, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	// ListPendingBefore returns the oldest pending orders created before cutoff.
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	// TransitionStatus moves the order to next only while its status is one of
	// from, and reports whether the row changed.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, next enums.OrderStatus) (bool, error)
	SetTransactionID(ctx context.Context, orderID uuid.UUID, transactionID string) error
	// TransitionPayment is the payment counterpart of TransitionStatus.
	TransitionPayment(ctx context.Context, orderID uuid.UUID, from enums.PaymentStatus, next enums.PaymentStatus) (bool, error)
}

type listOrdersParams struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items", "Payment").Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(ctx).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(ctx).Where("transaction_id = ?", transactionID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	size := params.Limit
	if size <= 0 {
		size = pagination.DefaultLimit
	}

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items").Preload("Payment")
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(size + 1).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	page, next := pagination.Page(orders, size, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

func (r *repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.withDetails(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, next enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetTransactionID(ctx context.Context, orderID uuid.UUID, transactionID string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("transaction_id", transactionID).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Update("transaction_id", transactionID).Error
}

func (r *repository) TransitionPayment(ctx context.Context, orderID uuid.UUID, from enums.PaymentStatus, next enums.PaymentStatus) (bool, error) {
	if !from.CanTransitionTo(next) {
		return false, fmt.Errorf("payment cannot move from %s to %s", from, next)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, from).
		Update("status", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Payment")
}
