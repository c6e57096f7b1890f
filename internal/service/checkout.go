package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bkash-shop-backend/internal/apperr"
	"bkash-shop-backend/internal/client"
	"bkash-shop-backend/internal/dto"
	"bkash-shop-backend/internal/model"
	"bkash-shop-backend/internal/repository"
)

const providerName = "bkash"

// errAlreadySettled signals that a concurrent callback won the commit race;
// the losing caller reports success instead of failing the user.
var errAlreadySettled = errors.New("payment already settled")

type CheckoutService interface {
	Create(ctx context.Context, orderID, payToken, payerReference string) (*dto.CreatePaymentData, error)
	// Callback resolves a provider callback and returns the URL the end
	// user must be redirected to. It never returns an error: every failure
	// branch maps to a failure redirect.
	Callback(ctx context.Context, paymentID, status string) string
	Refund(ctx context.Context, trxID string) (*dto.RefundData, error)
}

type checkoutServiceImpl struct {
	db              *gorm.DB
	gateway         client.BkashClient
	orderRepo       repository.OrderRepository
	paymentRepo     repository.PaymentRepository
	discountService DiscountService
	callbackURL     string
	successURL      string
	failureURL      string
	logger          *zap.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	gateway client.BkashClient,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	discountService DiscountService,
	callbackURL, successURL, failureURL string,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:              db,
		gateway:         gateway,
		orderRepo:       orderRepo,
		paymentRepo:     paymentRepo,
		discountService: discountService,
		callbackURL:     callbackURL,
		successURL:      successURL,
		failureURL:      failureURL,
		logger:          logger,
	}
}

// Create initiates a bKash payment for an order. Possession of the order's
// payToken is the only authorization required, which is what makes guest
// checkout possible.
func (s *checkoutServiceImpl) Create(ctx context.Context, orderID, payToken, payerReference string) (*dto.CreatePaymentData, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if order.IsPaid {
		return nil, apperr.ErrAlreadyPaid
	}
	if payToken == "" || payToken != order.PayToken {
		return nil, apperr.ErrInvalidPayToken
	}

	invoice := order.Invoice
	if invoice == "" {
		invoice = uuid.NewString()
		if err := s.orderRepo.SetInvoice(ctx, order.ID, invoice); err != nil {
			return nil, fmt.Errorf("store invoice: %w", err)
		}
	}

	payerRef := sanitizePayerReference(payerReference, order)

	requestSnapshot, _ := json.Marshal(map[string]interface{}{
		"amount":         order.Amount,
		"payerReference": payerRef,
		"callbackURL":    s.callbackURL,
		"invoice":        invoice,
	})

	payment := &model.Payment{
		OrderID:        order.ID,
		Provider:       providerName,
		Amount:         order.Amount,
		Status:         model.PaymentInitiated,
		GatewayRequest: string(requestSnapshot),
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment record: %w", err)
	}

	resp, err := s.gateway.CreatePayment(ctx, order.Amount, payerRef, s.callbackURL, invoice)
	if err != nil {
		raw := ""
		if resp != nil {
			if b, merr := json.Marshal(resp); merr == nil {
				raw = string(b)
			}
		}
		if ferr := s.paymentRepo.MarkFailed(ctx, payment.ID, raw); ferr != nil {
			s.logger.Error("mark payment failed", zap.Uint("paymentID", payment.ID), zap.Error(ferr))
		}
		s.logger.Error("bkash create payment", zap.String("orderID", order.ID), zap.Error(err))
		return nil, err
	}

	responseSnapshot, _ := json.Marshal(resp)
	if err := s.paymentRepo.StoreGatewayPaymentID(ctx, payment.ID, resp.PaymentID, string(responseSnapshot)); err != nil {
		return nil, fmt.Errorf("store gateway payment id: %w", err)
	}

	return &dto.CreatePaymentData{
		PaymentURL: resp.BkashURL,
		PaymentID:  resp.PaymentID,
	}, nil
}

func (s *checkoutServiceImpl) Callback(ctx context.Context, paymentID, status string) string {
	payment, err := s.paymentRepo.FindByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.failRedirect("payment-not-found")
		}
		s.logger.Error("load payment for callback", zap.String("paymentID", paymentID), zap.Error(err))
		return s.failRedirect("internal-error")
	}

	// duplicate callback for an already settled payment is a no-op success
	if payment.Status == model.PaymentCompleted || payment.Status == model.PaymentRefunded {
		return s.successRedirect()
	}
	if payment.Status != model.PaymentInitiated {
		return s.failRedirect("payment-" + strings.ToLower(string(payment.Status)))
	}

	switch status {
	case "success":
		return s.settle(ctx, payment)
	case "cancel":
		if err := s.paymentRepo.MarkCancelled(ctx, payment.ID); err != nil {
			s.logger.Error("mark payment cancelled", zap.Uint("paymentID", payment.ID), zap.Error(err))
		}
		return s.failRedirect("cancelled")
	default:
		if err := s.paymentRepo.MarkFailed(ctx, payment.ID, ""); err != nil {
			s.logger.Error("mark payment failed", zap.Uint("paymentID", payment.ID), zap.Error(err))
		}
		return s.failRedirect("failed")
	}
}

// settle drives execute with the query fallback and, when the money moved,
// commits all side effects in one transaction.
func (s *checkoutServiceImpl) settle(ctx context.Context, payment *model.Payment) string {
	result := s.resolveExecution(ctx, payment.GatewayPaymentID)

	switch result.outcome {
	case executionCompleted:
		if err := s.commit(ctx, payment, result); err != nil {
			if errors.Is(err, errAlreadySettled) {
				return s.successRedirect()
			}
			s.logger.Error("payment commit failed",
				zap.Uint("paymentID", payment.ID),
				zap.String("orderID", payment.OrderID),
				zap.Error(err),
			)
			// the rollback left the payment INITIATED; park it in a
			// terminal state so it stays inspectable
			if ferr := s.paymentRepo.MarkFailed(ctx, payment.ID, result.raw); ferr != nil {
				s.logger.Error("mark payment failed", zap.Uint("paymentID", payment.ID), zap.Error(ferr))
			}
			if errors.Is(err, apperr.ErrCouponExhausted) {
				return s.failRedirect("coupon-exhausted")
			}
			if errors.Is(err, apperr.ErrCouponInactive) {
				return s.failRedirect("coupon-inactive")
			}
			return s.failRedirect("commit-failed")
		}
		return s.successRedirect()

	case executionPending:
		if err := s.paymentRepo.MarkFailed(ctx, payment.ID, result.raw); err != nil {
			s.logger.Error("mark payment failed", zap.Uint("paymentID", payment.ID), zap.Error(err))
		}
		return s.failRedirect("payment-pending")

	default:
		if err := s.paymentRepo.MarkFailed(ctx, payment.ID, result.raw); err != nil {
			s.logger.Error("mark payment failed", zap.Uint("paymentID", payment.ID), zap.Error(err))
		}
		return s.failRedirect("payment-failed")
	}
}

type executionOutcome int

const (
	executionFailed executionOutcome = iota
	executionPending
	executionCompleted
)

type executionResult struct {
	outcome           executionOutcome
	trxID             string
	transactionStatus string
	raw               string
}

// resolveExecution turns the execute-then-maybe-query protocol into a
// single tri-state answer. An execute failure is ambiguous: the provider
// may have processed it even though the response was lost, so the
// side-effect-free query decides.
func (s *checkoutServiceImpl) resolveExecution(ctx context.Context, gatewayPaymentID string) executionResult {
	exec, err := s.gateway.ExecutePayment(ctx, gatewayPaymentID)
	if err == nil && exec.StatusCode == client.ExecuteSuccessCode {
		raw, _ := json.Marshal(exec)
		return executionResult{
			outcome:           executionCompleted,
			trxID:             exec.TrxID,
			transactionStatus: exec.TransactionStatus,
			raw:               string(raw),
		}
	}
	if err != nil {
		s.logger.Warn("bkash execute failed, querying payment status",
			zap.String("paymentID", gatewayPaymentID),
			zap.Error(err),
		)
	}

	query, qerr := s.gateway.QueryPayment(ctx, gatewayPaymentID)
	if qerr != nil {
		s.logger.Error("bkash query failed", zap.String("paymentID", gatewayPaymentID), zap.Error(qerr))
		return executionResult{outcome: executionFailed}
	}

	raw, _ := json.Marshal(query)
	switch query.TransactionStatus {
	case "Completed":
		return executionResult{
			outcome:           executionCompleted,
			trxID:             query.TrxID,
			transactionStatus: query.TransactionStatus,
			raw:               string(raw),
		}
	case "Initiated", "Pending":
		return executionResult{outcome: executionPending, raw: string(raw)}
	default:
		return executionResult{outcome: executionFailed, raw: string(raw)}
	}
}

// commit applies every side effect of a completed payment atomically:
// payment → Completed, order → paid/PROCESSING, coupon consumed. A failure
// anywhere rolls back all of it.
func (s *checkoutServiceImpl) commit(ctx context.Context, payment *model.Payment, result executionResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByIDTx(ctx, tx, payment.OrderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}

		if err := s.paymentRepo.MarkCompleted(ctx, tx, payment.ID, result.trxID, result.transactionStatus, result.raw); err != nil {
			return fmt.Errorf("mark payment completed: %w", err)
		}

		if err := s.orderRepo.MarkPaid(ctx, tx, order.ID, providerName); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// no unpaid row left: a duplicate callback committed first
				return errAlreadySettled
			}
			return fmt.Errorf("mark order paid: %w", err)
		}

		if order.Coupon != "" {
			if err := s.discountService.Consume(ctx, tx, order.Coupon, order.ID); err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *checkoutServiceImpl) Refund(ctx context.Context, trxID string) (*dto.RefundData, error) {
	payment, err := s.paymentRepo.FindCompletedByTrxID(ctx, trxID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	resp, err := s.gateway.RefundTransaction(ctx, payment.GatewayPaymentID, trxID, payment.Amount, payment.OrderID, "customer refund")
	if err != nil {
		s.logger.Error("bkash refund", zap.String("trxID", trxID), zap.Error(err))
		return nil, err
	}

	if resp.RefundTransactionStatus != "Completed" && resp.StatusCode != client.ExecuteSuccessCode {
		s.logger.Error("bkash refund rejected",
			zap.String("trxID", trxID),
			zap.String("statusCode", resp.StatusCode),
			zap.String("refundStatus", resp.RefundTransactionStatus),
		)
		return nil, &apperr.GatewayError{
			Op:         "refund",
			StatusCode: resp.StatusCode,
			Body:       resp.StatusMessage,
		}
	}

	if err := s.paymentRepo.MarkRefunded(ctx, payment.ID, resp.RefundTrxID, resp.RefundTransactionStatus, payment.Amount); err != nil {
		return nil, fmt.Errorf("mark payment refunded: %w", err)
	}

	return &dto.RefundData{
		TrxID:        trxID,
		RefundTrxID:  resp.RefundTrxID,
		RefundStatus: resp.RefundTransactionStatus,
		Amount:       payment.Amount,
	}, nil
}

func (s *checkoutServiceImpl) successRedirect() string {
	return s.successURL
}

func (s *checkoutServiceImpl) failRedirect(message string) string {
	return s.failureURL + "?message=" + url.QueryEscape(message)
}

// sanitizePayerReference reduces a payer reference to the character set
// bKash accepts, falling back to the order's guest phone, then a constant.
func sanitizePayerReference(ref string, order *model.Order) string {
	cleaned := stripNonAlnum(ref)
	if cleaned == "" {
		if guest, ok := order.Customer().(model.GuestCustomer); ok {
			cleaned = stripNonAlnum(guest.Phone)
		}
	}
	if cleaned == "" {
		cleaned = "guest"
	}
	if len(cleaned) > 20 {
		cleaned = cleaned[:20]
	}
	return cleaned
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
