package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bkash-shop-backend/internal/model"
)

type CartRepository interface {
	Create(ctx context.Context, item *model.CartItem) error
	ListBySession(ctx context.Context, sessionKey string) ([]*model.CartItem, error)
	FindInCart(ctx context.Context, tx *gorm.DB, ids []uint) ([]*model.CartItem, error)
	MarkOrdered(ctx context.Context, tx *gorm.DB, ids []uint, orderID string) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) Create(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepoImpl) ListBySession(ctx context.Context, sessionKey string) ([]*model.CartItem, error) {
	var items []*model.CartItem
	err := r.db.WithContext(ctx).
		Where("session_key = ? AND status = ?", sessionKey, model.CartInCart).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

// FindInCart returns only items still IN_CART; stale or already-consumed
// ids simply drop out of the result.
func (r *cartRepoImpl) FindInCart(ctx context.Context, tx *gorm.DB, ids []uint) ([]*model.CartItem, error) {
	var items []*model.CartItem
	err := tx.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, model.CartInCart).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *cartRepoImpl) MarkOrdered(ctx context.Context, tx *gorm.DB, ids []uint, orderID string) error {
	return tx.WithContext(ctx).Model(&model.CartItem{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     model.CartOrdered,
			"order_id":   orderID,
			"updated_at": time.Now(),
		}).Error
}
