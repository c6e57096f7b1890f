package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bkash-shop-backend/internal/model"
)

type DiscountRepository interface {
	FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Discount, error)
	FindAutoForItems(ctx context.Context, productIDs []string, variantIDs []uint) ([]*model.Discount, error)
	OrderDiscountExists(ctx context.Context, tx *gorm.DB, orderID string, discountID uint) (bool, error)
	ConsumeUsage(ctx context.Context, tx *gorm.DB, discountID uint, limited bool) (bool, error)
	CreateOrderDiscount(ctx context.Context, tx *gorm.DB, orderID string, discountID uint) error
}

type discountRepoImpl struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepoImpl{
		db: db,
	}
}

func (r *discountRepoImpl) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Discount, error) {
	if tx == nil {
		tx = r.db
	}

	var discount model.Discount
	err := tx.WithContext(ctx).
		Where("code = ?", code).
		First(&discount).Error

	if err != nil {
		return nil, err
	}

	return &discount, nil
}

// FindAutoForItems returns code-less PRODUCT/VARIANT discounts matching any
// of the given products or variants. These apply without a coupon.
func (r *discountRepoImpl) FindAutoForItems(ctx context.Context, productIDs []string, variantIDs []uint) ([]*model.Discount, error) {
	var discounts []*model.Discount

	query := r.db.WithContext(ctx).
		Where("code = ?", "").
		Where(
			r.db.Where("scope = ? AND product_id IN ?", model.ScopeProduct, productIDs).
				Or("scope = ? AND variant_id IN ?", model.ScopeVariant, variantIDs),
		)

	if err := query.Find(&discounts).Error; err != nil {
		return nil, err
	}

	return discounts, nil
}

func (r *discountRepoImpl) OrderDiscountExists(ctx context.Context, tx *gorm.DB, orderID string, discountID uint) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.OrderDiscount{}).
		Where("order_id = ? AND discount_id = ?", orderID, discountID).
		Count(&count).Error

	return count > 0, err
}

// ConsumeUsage increments used_count. When limited, the WHERE clause
// re-checks used_count < max_usage so the write only lands while the cap
// still holds; zero affected rows means the coupon is spent. This is the
// race guard — no in-process lock involved.
func (r *discountRepoImpl) ConsumeUsage(ctx context.Context, tx *gorm.DB, discountID uint, limited bool) (bool, error) {
	query := tx.WithContext(ctx).Model(&model.Discount{})
	if limited {
		query = query.Where("id = ? AND used_count < max_usage", discountID)
	} else {
		query = query.Where("id = ?", discountID)
	}

	result := query.Updates(map[string]interface{}{
		"used_count": gorm.Expr("used_count + 1"),
		"updated_at": time.Now(),
	})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *discountRepoImpl) CreateOrderDiscount(ctx context.Context, tx *gorm.DB, orderID string, discountID uint) error {
	return tx.WithContext(ctx).Create(&model.OrderDiscount{
		OrderID:    orderID,
		DiscountID: discountID,
	}).Error
}
