package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bkash-shop-backend/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	SetInvoice(ctx context.Context, orderID, invoice string) error
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID, method string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	return r.FindByIDTx(ctx, r.db, orderID)
}

func (r *orderRepoImpl) FindByIDTx(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := tx.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) SetInvoice(ctx context.Context, orderID, invoice string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("invoice", invoice).Error
}

// MarkPaid flips the order to paid exactly once; a second call finds no
// unpaid row and reports not found.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID, method string) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND is_paid = ?", orderID, false).
		Updates(map[string]interface{}{
			"is_paid":    true,
			"method":     method,
			"status":     model.OrderProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
