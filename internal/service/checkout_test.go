package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bkash-shop-backend/internal/apperr"
	"bkash-shop-backend/internal/model"
	"bkash-shop-backend/internal/repository"
)

// --- Mock gateway ---

type mockGateway struct {
	createFn  func(ctx context.Context, amount int64, payerReference, callbackURL, invoice string) (*model.BkashCreateResponse, error)
	executeFn func(ctx context.Context, paymentID string) (*model.BkashExecuteResponse, error)
	queryFn   func(ctx context.Context, paymentID string) (*model.BkashQueryResponse, error)
	refundFn  func(ctx context.Context, paymentID, trxID string, amount int64, sku, reason string) (*model.BkashRefundResponse, error)

	createCalls  atomic.Int64
	executeCalls atomic.Int64
	queryCalls   atomic.Int64
	refundCalls  atomic.Int64
}

func (m *mockGateway) CreatePayment(ctx context.Context, amount int64, payerReference, callbackURL, invoice string) (*model.BkashCreateResponse, error) {
	m.createCalls.Add(1)
	if m.createFn == nil {
		return nil, errors.New("unexpected CreatePayment call")
	}
	return m.createFn(ctx, amount, payerReference, callbackURL, invoice)
}

func (m *mockGateway) ExecutePayment(ctx context.Context, paymentID string) (*model.BkashExecuteResponse, error) {
	m.executeCalls.Add(1)
	if m.executeFn == nil {
		return nil, errors.New("unexpected ExecutePayment call")
	}
	return m.executeFn(ctx, paymentID)
}

func (m *mockGateway) QueryPayment(ctx context.Context, paymentID string) (*model.BkashQueryResponse, error) {
	m.queryCalls.Add(1)
	if m.queryFn == nil {
		return nil, errors.New("unexpected QueryPayment call")
	}
	return m.queryFn(ctx, paymentID)
}

func (m *mockGateway) RefundTransaction(ctx context.Context, paymentID, trxID string, amount int64, sku, reason string) (*model.BkashRefundResponse, error) {
	m.refundCalls.Add(1)
	if m.refundFn == nil {
		return nil, errors.New("unexpected RefundTransaction call")
	}
	return m.refundFn(ctx, paymentID, trxID, amount, sku, reason)
}

// --- Test environment ---

type checkoutEnv struct {
	db          *gorm.DB
	gateway     *mockGateway
	svc         CheckoutService
	paymentRepo repository.PaymentRepository
}

const (
	testSuccessURL = "https://shop.example/payment/success"
	testFailureURL = "https://shop.example/payment/failure"
)

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	t.Helper()

	db := newTestDB(t)
	gateway := &mockGateway{}
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	discountService := NewDiscountService(
		repository.NewProductRepository(db),
		repository.NewDiscountRepository(db),
		zap.NewNop(),
	)

	svc := NewCheckoutService(
		db,
		gateway,
		orderRepo,
		paymentRepo,
		discountService,
		"https://shop.example/api/checkout/callback",
		testSuccessURL,
		testFailureURL,
		zap.NewNop(),
	)

	return &checkoutEnv{db: db, gateway: gateway, svc: svc, paymentRepo: paymentRepo}
}

func (e *checkoutEnv) seedOrder(t *testing.T, id string, amount int64, coupon string) *model.Order {
	t.Helper()
	order := &model.Order{
		ID:       id,
		Invoice:  "INV-" + id,
		Amount:   amount,
		Coupon:   coupon,
		Status:   model.OrderPending,
		PayToken: "token-" + id,
	}
	require.NoError(t, e.db.Create(order).Error)
	return order
}

func (e *checkoutEnv) seedInitiatedPayment(t *testing.T, orderID, gatewayPaymentID string, amount int64) *model.Payment {
	t.Helper()
	payment := &model.Payment{
		OrderID:          orderID,
		Provider:         "bkash",
		Amount:           amount,
		Status:           model.PaymentInitiated,
		GatewayPaymentID: gatewayPaymentID,
	}
	require.NoError(t, e.db.Create(payment).Error)
	return payment
}

func (e *checkoutEnv) reloadPayment(t *testing.T, id uint) *model.Payment {
	t.Helper()
	var payment model.Payment
	require.NoError(t, e.db.First(&payment, id).Error)
	return &payment
}

func (e *checkoutEnv) reloadOrder(t *testing.T, id string) *model.Order {
	t.Helper()
	var order model.Order
	require.NoError(t, e.db.Where("id = ?", id).First(&order).Error)
	return &order
}

// --- Create ---

func TestCheckoutCreate_Success(t *testing.T) {
	env := newCheckoutEnv(t)
	order := env.seedOrder(t, "ord-1", 1350, "")

	env.gateway.createFn = func(_ context.Context, amount int64, payerRef, callbackURL, invoice string) (*model.BkashCreateResponse, error) {
		assert.Equal(t, int64(1350), amount)
		assert.Equal(t, "INV-ord-1", invoice)
		assert.Equal(t, "https://shop.example/api/checkout/callback", callbackURL)
		return &model.BkashCreateResponse{
			PaymentID:  "TR100",
			BkashURL:   "https://checkout.example/TR100",
			StatusCode: "0000",
		}, nil
	}

	result, err := env.svc.Create(context.Background(), order.ID, order.PayToken, "017123456789")
	require.NoError(t, err)
	assert.Equal(t, "TR100", result.PaymentID)
	assert.Equal(t, "https://checkout.example/TR100", result.PaymentURL)

	var payment model.Payment
	require.NoError(t, env.db.Where("order_id = ?", order.ID).First(&payment).Error)
	assert.Equal(t, model.PaymentInitiated, payment.Status)
	assert.Equal(t, "TR100", payment.GatewayPaymentID)
	assert.NotEmpty(t, payment.GatewayRequest)
	assert.NotEmpty(t, payment.GatewayResponse)
}

func TestCheckoutCreate_OrderNotFound(t *testing.T) {
	env := newCheckoutEnv(t)

	_, err := env.svc.Create(context.Background(), "missing", "tok", "")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
	assert.Equal(t, int64(0), env.gateway.createCalls.Load())
}

func TestCheckoutCreate_AlreadyPaid(t *testing.T) {
	env := newCheckoutEnv(t)
	order := env.seedOrder(t, "ord-1", 1350, "")
	require.NoError(t, env.db.Model(order).Update("is_paid", true).Error)

	_, err := env.svc.Create(context.Background(), order.ID, order.PayToken, "")
	assert.ErrorIs(t, err, apperr.ErrAlreadyPaid)
	assert.Equal(t, int64(0), env.gateway.createCalls.Load())
}

func TestCheckoutCreate_WrongPayToken(t *testing.T) {
	env := newCheckoutEnv(t)
	order := env.seedOrder(t, "ord-1", 1350, "")

	_, err := env.svc.Create(context.Background(), order.ID, "wrong-token", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidPayToken)
	assert.Equal(t, int64(0), env.gateway.createCalls.Load())
}

func TestCheckoutCreate_GatewayFailureMarksPaymentFailed(t *testing.T) {
	env := newCheckoutEnv(t)
	order := env.seedOrder(t, "ord-1", 1350, "")

	env.gateway.createFn = func(context.Context, int64, string, string, string) (*model.BkashCreateResponse, error) {
		return nil, &apperr.GatewayError{Op: "create", StatusCode: "503", Body: "unavailable"}
	}

	_, err := env.svc.Create(context.Background(), order.ID, order.PayToken, "")
	require.Error(t, err)

	var payment model.Payment
	require.NoError(t, env.db.Where("order_id = ?", order.ID).First(&payment).Error)
	assert.Equal(t, model.PaymentFailed, payment.Status)
}

// --- Callback ---

func TestCallback_UnknownPayment(t *testing.T) {
	env := newCheckoutEnv(t)

	redirect := env.svc.Callback(context.Background(), "TR404", "success")
	assert.Equal(t, testFailureURL+"?message=payment-not-found", redirect)
}

func TestCallback_AlreadyCompletedIsIdempotent(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)
	require.NoError(t, env.db.Model(payment).Updates(map[string]interface{}{
		"status": model.PaymentCompleted, "gateway_trx_id": "TX1",
	}).Error)

	redirect := env.svc.Callback(context.Background(), "TR100", "success")

	assert.Equal(t, testSuccessURL, redirect)
	// no gateway traffic, no state change
	assert.Equal(t, int64(0), env.gateway.executeCalls.Load())
	assert.Equal(t, int64(0), env.gateway.queryCalls.Load())
	reloaded := env.reloadPayment(t, payment.ID)
	assert.Equal(t, model.PaymentCompleted, reloaded.Status)
	assert.Equal(t, "TX1", reloaded.GatewayTrxID)
}

func TestCallback_Cancel(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)

	redirect := env.svc.Callback(context.Background(), "TR100", "cancel")

	assert.Equal(t, testFailureURL+"?message=cancelled", redirect)
	assert.Equal(t, model.PaymentCancelled, env.reloadPayment(t, payment.ID).Status)
	assert.False(t, env.reloadOrder(t, "ord-1").IsPaid)
	assert.Equal(t, int64(0), env.gateway.executeCalls.Load())
}

func TestCallback_UnknownStatusFails(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)

	redirect := env.svc.Callback(context.Background(), "TR100", "failure")

	assert.Equal(t, testFailureURL+"?message=failed", redirect)
	assert.Equal(t, model.PaymentFailed, env.reloadPayment(t, payment.ID).Status)
}

func TestCallback_ExecuteSuccessCommits(t *testing.T) {
	env := newCheckoutEnv(t)
	seedProduct(t, env.db, "p1", 1500)
	seedOrderCoupon(t, env.db, "SAVE10", model.DiscountPercentage, 10, maxUsageOf(1))
	env.seedOrder(t, "ord-1", 1350, "SAVE10")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)

	env.gateway.executeFn = func(_ context.Context, paymentID string) (*model.BkashExecuteResponse, error) {
		assert.Equal(t, "TR100", paymentID)
		return &model.BkashExecuteResponse{
			StatusCode:        "0000",
			TrxID:             "TX1",
			TransactionStatus: "Completed",
		}, nil
	}

	redirect := env.svc.Callback(context.Background(), "TR100", "success")
	assert.Equal(t, testSuccessURL, redirect)

	reloaded := env.reloadPayment(t, payment.ID)
	assert.Equal(t, model.PaymentCompleted, reloaded.Status)
	assert.Equal(t, "TX1", reloaded.GatewayTrxID)

	order := env.reloadOrder(t, "ord-1")
	assert.True(t, order.IsPaid)
	assert.Equal(t, model.OrderProcessing, order.Status)
	assert.Equal(t, "bkash", order.Method)

	var coupon model.Discount
	require.NoError(t, env.db.Where("code = ?", "SAVE10").First(&coupon).Error)
	assert.Equal(t, int32(1), coupon.UsedCount)

	var links int64
	require.NoError(t, env.db.Model(&model.OrderDiscount{}).Count(&links).Error)
	assert.Equal(t, int64(1), links)

	assert.Equal(t, int64(0), env.gateway.queryCalls.Load())
}

func TestCallback_ExecuteErrorQueryCompleted(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)

	env.gateway.executeFn = func(context.Context, string) (*model.BkashExecuteResponse, error) {
		return nil, errors.New("i/o timeout")
	}
	env.gateway.queryFn = func(_ context.Context, paymentID string) (*model.BkashQueryResponse, error) {
		assert.Equal(t, "TR100", paymentID)
		return &model.BkashQueryResponse{TransactionStatus: "Completed", TrxID: "TX1"}, nil
	}

	redirect := env.svc.Callback(context.Background(), "TR100", "success")
	assert.Equal(t, testSuccessURL, redirect)

	reloaded := env.reloadPayment(t, payment.ID)
	assert.Equal(t, model.PaymentCompleted, reloaded.Status)
	assert.Equal(t, "TX1", reloaded.GatewayTrxID)
	assert.True(t, env.reloadOrder(t, "ord-1").IsPaid)
}

func TestCallback_ExecuteErrorQueryNotCompleted(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)

	env.gateway.executeFn = func(context.Context, string) (*model.BkashExecuteResponse, error) {
		return &model.BkashExecuteResponse{StatusCode: "2062", StatusMessage: "payment not found"}, nil
	}
	env.gateway.queryFn = func(context.Context, string) (*model.BkashQueryResponse, error) {
		return &model.BkashQueryResponse{TransactionStatus: "Failed"}, nil
	}

	redirect := env.svc.Callback(context.Background(), "TR100", "success")
	assert.Equal(t, testFailureURL+"?message=payment-failed", redirect)

	assert.Equal(t, model.PaymentFailed, env.reloadPayment(t, payment.ID).Status)
	assert.False(t, env.reloadOrder(t, "ord-1").IsPaid)
}

func TestCallback_QueryPendingIsNotSuccess(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)

	env.gateway.executeFn = func(context.Context, string) (*model.BkashExecuteResponse, error) {
		return nil, errors.New("connection reset")
	}
	env.gateway.queryFn = func(context.Context, string) (*model.BkashQueryResponse, error) {
		return &model.BkashQueryResponse{TransactionStatus: "Pending"}, nil
	}

	redirect := env.svc.Callback(context.Background(), "TR100", "success")
	assert.Equal(t, testFailureURL+"?message=payment-pending", redirect)
	assert.Equal(t, model.PaymentFailed, env.reloadPayment(t, payment.ID).Status)
}

func TestCallback_ConcurrentDuplicateBothSucceed(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)

	// the first caller parks inside ExecutePayment until the second has
	// fully settled the payment
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	env.gateway.executeFn = func(context.Context, string) (*model.BkashExecuteResponse, error) {
		if env.gateway.executeCalls.Load() == 1 {
			close(firstEntered)
			<-releaseFirst
		}
		return &model.BkashExecuteResponse{
			StatusCode:        "0000",
			TrxID:             "TX1",
			TransactionStatus: "Completed",
		}, nil
	}

	firstRedirect := make(chan string, 1)
	go func() {
		firstRedirect <- env.svc.Callback(context.Background(), "TR100", "success")
	}()

	<-firstEntered
	second := env.svc.Callback(context.Background(), "TR100", "success")
	close(releaseFirst)
	first := <-firstRedirect

	// the loser of the commit race must not fail the user or regress the
	// settled payment
	assert.Equal(t, testSuccessURL, second)
	assert.Equal(t, testSuccessURL, first)

	reloaded := env.reloadPayment(t, payment.ID)
	assert.Equal(t, model.PaymentCompleted, reloaded.Status)
	assert.Equal(t, "TX1", reloaded.GatewayTrxID)
	assert.True(t, env.reloadOrder(t, "ord-1").IsPaid)
}

func TestCallback_CommitFailureRollsBackAndFails(t *testing.T) {
	env := newCheckoutEnv(t)
	// coupon already fully spent by another order: commit must fail
	spent := seedOrderCoupon(t, env.db, "SAVE10", model.DiscountPercentage, 10, maxUsageOf(1))
	require.NoError(t, env.db.Model(spent).Update("used_count", 1).Error)

	env.seedOrder(t, "ord-1", 1350, "SAVE10")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)

	env.gateway.executeFn = func(context.Context, string) (*model.BkashExecuteResponse, error) {
		return &model.BkashExecuteResponse{StatusCode: "0000", TrxID: "TX1", TransactionStatus: "Completed"}, nil
	}

	redirect := env.svc.Callback(context.Background(), "TR100", "success")
	assert.Equal(t, testFailureURL+"?message=coupon-exhausted", redirect)

	// whole commit rolled back: order unpaid, coupon untouched, payment
	// parked in a terminal state
	order := env.reloadOrder(t, "ord-1")
	assert.False(t, order.IsPaid)
	assert.Equal(t, model.OrderPending, order.Status)

	var coupon model.Discount
	require.NoError(t, env.db.First(&coupon, spent.ID).Error)
	assert.Equal(t, int32(1), coupon.UsedCount)

	assert.Equal(t, model.PaymentFailed, env.reloadPayment(t, payment.ID).Status)
}

// --- Refund ---

func TestRefund_Success(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)
	require.NoError(t, env.db.Model(payment).Updates(map[string]interface{}{
		"status": model.PaymentCompleted, "gateway_trx_id": "TX1",
	}).Error)

	env.gateway.refundFn = func(_ context.Context, paymentID, trxID string, amount int64, sku, reason string) (*model.BkashRefundResponse, error) {
		assert.Equal(t, "TR100", paymentID)
		assert.Equal(t, "TX1", trxID)
		assert.Equal(t, int64(1350), amount)
		return &model.BkashRefundResponse{
			RefundTransactionStatus: "Completed",
			RefundTrxID:             "RF1",
		}, nil
	}

	refund, err := env.svc.Refund(context.Background(), "TX1")
	require.NoError(t, err)
	assert.Equal(t, "RF1", refund.RefundTrxID)
	assert.Equal(t, int64(1350), refund.Amount)

	reloaded := env.reloadPayment(t, payment.ID)
	assert.Equal(t, model.PaymentRefunded, reloaded.Status)
	assert.Equal(t, "RF1", reloaded.RefundTrxID)
	assert.Equal(t, int64(1350), reloaded.RefundedAmount)
}

func TestRefund_UnknownTrxID(t *testing.T) {
	env := newCheckoutEnv(t)

	_, err := env.svc.Refund(context.Background(), "TX404")
	assert.ErrorIs(t, err, apperr.ErrPaymentNotFound)
	assert.Equal(t, int64(0), env.gateway.refundCalls.Load())
}

func TestRefund_RejectedLeavesStatus(t *testing.T) {
	env := newCheckoutEnv(t)
	env.seedOrder(t, "ord-1", 1350, "")
	payment := env.seedInitiatedPayment(t, "ord-1", "TR100", 1350)
	require.NoError(t, env.db.Model(payment).Updates(map[string]interface{}{
		"status": model.PaymentCompleted, "gateway_trx_id": "TX1",
	}).Error)

	env.gateway.refundFn = func(context.Context, string, string, int64, string, string) (*model.BkashRefundResponse, error) {
		return &model.BkashRefundResponse{StatusCode: "2063", RefundTransactionStatus: "Failed"}, nil
	}

	_, err := env.svc.Refund(context.Background(), "TX1")
	require.Error(t, err)

	assert.Equal(t, model.PaymentCompleted, env.reloadPayment(t, payment.ID).Status)
}
