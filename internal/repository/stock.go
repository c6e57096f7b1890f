package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bkash-shop-backend/internal/model"
)

type StockRepository interface {
	DecrementStock(ctx context.Context, tx *gorm.DB, productID string, delta int64, soldQuantity int32) error
	AppendLog(ctx context.Context, tx *gorm.DB, entry *model.StockLog) error
	Logs(ctx context.Context, orderID string) ([]*model.StockLog, error)
}

type stockRepoImpl struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepoImpl{
		db: db,
	}
}

// DecrementStock reduces stock by delta and bumps the sales counter in one
// update. The WHERE re-checks the product exists; a missing product aborts
// the enclosing transaction.
func (r *stockRepoImpl) DecrementStock(ctx context.Context, tx *gorm.DB, productID string, delta int64, soldQuantity int32) error {
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", delta),
			"sales":      gorm.Expr("sales + ?", soldQuantity),
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

func (r *stockRepoImpl) AppendLog(ctx context.Context, tx *gorm.DB, entry *model.StockLog) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *stockRepoImpl) Logs(ctx context.Context, orderID string) ([]*model.StockLog, error) {
	var logs []*model.StockLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&logs).Error

	if err != nil {
		return nil, err
	}

	return logs, nil
}
