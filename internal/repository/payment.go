package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bkash-shop-backend/internal/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.Payment, error)
	FindCompletedByTrxID(ctx context.Context, trxID string) (*model.Payment, error)
	StoreGatewayPaymentID(ctx context.Context, id uint, gatewayPaymentID, response string) error
	MarkFailed(ctx context.Context, id uint, response string) error
	MarkCancelled(ctx context.Context, id uint) error
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, trxID, transactionStatus, response string) error
	MarkRefunded(ctx context.Context, id uint, refundTrxID, refundStatus string, amount int64) error
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("gateway_payment_id = ?", gatewayPaymentID).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindCompletedByTrxID(ctx context.Context, trxID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("gateway_trx_id = ?", trxID).
		Where("status = ?", model.PaymentCompleted).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) StoreGatewayPaymentID(ctx context.Context, id uint, gatewayPaymentID, response string) error {
	return r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"gateway_payment_id": gatewayPaymentID,
			"gateway_response":   response,
			"updated_at":         time.Now(),
		}).Error
}

// MarkFailed parks an INITIATED payment in the failed state. The status
// guard keeps a concurrent callback that already settled the payment from
// being overwritten; zero affected rows is not an error.
func (r *paymentRepoImpl) MarkFailed(ctx context.Context, id uint, response string) error {
	updates := map[string]interface{}{
		"status":     model.PaymentFailed,
		"updated_at": time.Now(),
	}
	if response != "" {
		updates["gateway_response"] = response
	}

	return r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentInitiated).
		Updates(updates).Error
}

func (r *paymentRepoImpl) MarkCancelled(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentInitiated).
		Updates(map[string]interface{}{
			"status":     model.PaymentCancelled,
			"updated_at": time.Now(),
		}).Error
}

func (r *paymentRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, trxID, transactionStatus, response string) error {
	return tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":             model.PaymentCompleted,
			"gateway_trx_id":     trxID,
			"transaction_status": transactionStatus,
			"gateway_response":   response,
			"updated_at":         time.Now(),
		}).Error
}

func (r *paymentRepoImpl) MarkRefunded(ctx context.Context, id uint, refundTrxID, refundStatus string, amount int64) error {
	result := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, model.PaymentCompleted).
		Updates(map[string]interface{}{
			"status":          model.PaymentRefunded,
			"refund_trx_id":   refundTrxID,
			"refund_status":   refundStatus,
			"refunded_amount": amount,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
