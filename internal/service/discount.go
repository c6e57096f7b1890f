package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bkash-shop-backend/internal/apperr"
	"bkash-shop-backend/internal/dto"
	"bkash-shop-backend/internal/model"
	"bkash-shop-backend/internal/repository"
)

type DiscountService interface {
	Quote(ctx context.Context, code string, items []dto.QuoteItem) (*dto.QuoteBreakdown, error)
	Consume(ctx context.Context, tx *gorm.DB, code, orderID string) error
}

type discountServiceImpl struct {
	productRepo  repository.ProductRepository
	discountRepo repository.DiscountRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewDiscountService(
	productRepo repository.ProductRepository,
	discountRepo repository.DiscountRepository,
	logger *zap.Logger,
) DiscountService {
	return &discountServiceImpl{
		productRepo:  productRepo,
		discountRepo: discountRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Quote prices a set of cart lines: item-scoped discounts first (automatic
// ones plus a coupon targeting a specific product/variant), then at most one
// ORDER-scoped coupon on the remaining subtotal. Performs no writes.
func (s *discountServiceImpl) Quote(ctx context.Context, code string, items []dto.QuoteItem) (*dto.QuoteBreakdown, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("items required")
	}

	productIDs := make([]string, 0, len(items))
	variantIDs := make([]uint, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for product %s", item.ProductID)
		}
		productIDs = append(productIDs, item.ProductID)
		if item.VariantID != nil {
			variantIDs = append(variantIDs, *item.VariantID)
		}
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	productMap := make(map[string]*model.Product, len(products))
	variantMap := make(map[uint]*model.ProductVariant)
	for _, p := range products {
		productMap[p.ID] = p
		for i := range p.Variants {
			variantMap[p.Variants[i].ID] = &p.Variants[i]
		}
	}

	autoDiscounts, err := s.discountRepo.FindAutoForItems(ctx, productIDs, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("get item discounts: %w", err)
	}

	coupon, err := s.lookupCoupon(ctx, code)
	if err != nil {
		return nil, err
	}

	breakdown := &dto.QuoteBreakdown{
		Lines: make([]dto.QuoteLine, 0, len(items)),
	}

	couponApplied := false
	subtotal := decimal.Zero
	for _, item := range items {
		product, ok := productMap[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s not found", item.ProductID)
		}

		unitPrice := decimal.NewFromInt(product.Price)
		if item.VariantID != nil {
			variant, ok := variantMap[*item.VariantID]
			if !ok || variant.ProductID != product.ID {
				return nil, fmt.Errorf("variant %d not found for product %s", *item.VariantID, item.ProductID)
			}
			if variant.Price != nil {
				unitPrice = decimal.NewFromInt(*variant.Price)
			}
		}

		discounted := unitPrice
		for _, d := range autoDiscounts {
			if discountMatchesItem(d, item) {
				discounted = d.Rule().Apply(discounted)
			}
		}
		if coupon != nil && coupon.Scope != model.ScopeOrder && discountMatchesItem(coupon, item) {
			discounted = coupon.Rule().Apply(discounted)
			couponApplied = true
		}

		lineTotal := discounted.Mul(decimal.NewFromInt32(item.Quantity))
		subtotal = subtotal.Add(lineTotal)

		breakdown.Lines = append(breakdown.Lines, dto.QuoteLine{
			ProductID:           item.ProductID,
			VariantID:           item.VariantID,
			Quantity:            item.Quantity,
			UnitPrice:           unitPrice.Round(0).IntPart(),
			DiscountedUnitPrice: discounted.Round(0).IntPart(),
			LineTotal:           lineTotal.Round(0).IntPart(),
		})
	}

	grandTotal := subtotal
	orderDiscount := decimal.Zero
	if coupon != nil && coupon.Scope == model.ScopeOrder {
		grandTotal = coupon.Rule().Apply(subtotal)
		orderDiscount = subtotal.Sub(grandTotal)
		couponApplied = true
	}

	// a coupon that matched no line must not ride along on the order, or
	// commit would burn a usage for nothing
	if couponApplied {
		breakdown.Coupon = coupon.Code
	}

	breakdown.Subtotal = subtotal.Round(0).IntPart()
	breakdown.OrderDiscountAmount = orderDiscount.Round(0).IntPart()
	breakdown.GrandTotalAfterDiscount = grandTotal.Round(0).IntPart()

	return breakdown, nil
}

// lookupCoupon resolves and validates a coupon at quote time. Returns nil
// when no code was given.
func (s *discountServiceImpl) lookupCoupon(ctx context.Context, code string) (*model.Discount, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, nil
	}

	coupon, err := s.discountRepo.FindByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrCouponNotFound
		}
		return nil, fmt.Errorf("lookup coupon: %w", err)
	}

	if !s.couponActive(coupon) {
		return nil, apperr.ErrCouponInactive
	}
	if coupon.MaxUsage != nil && coupon.UsedCount >= *coupon.MaxUsage {
		return nil, apperr.ErrCouponExhausted
	}

	return coupon, nil
}

// Consume atomically spends one use of a coupon for an order. Runs inside
// the caller's transaction; the conditional usage update and the unique
// OrderDiscount row are what keep retries and concurrent checkouts honest.
func (s *discountServiceImpl) Consume(ctx context.Context, tx *gorm.DB, code, orderID string) error {
	code = normalizeCode(code)
	if code == "" {
		return nil
	}

	discount, err := s.discountRepo.FindByCode(ctx, tx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// validity was checked at quote time; a vanished coupon is not
			// worth failing the payment commit over
			s.logger.Warn("coupon missing at commit time", zap.String("code", code), zap.String("orderID", orderID))
			return nil
		}
		return fmt.Errorf("lookup coupon: %w", err)
	}

	consumed, err := s.discountRepo.OrderDiscountExists(ctx, tx, orderID, discount.ID)
	if err != nil {
		return fmt.Errorf("check order discount: %w", err)
	}
	if consumed {
		return nil
	}

	// the coupon may have expired between quote and commit
	if !s.couponActive(discount) {
		return apperr.ErrCouponInactive
	}

	ok, err := s.discountRepo.ConsumeUsage(ctx, tx, discount.ID, discount.MaxUsage != nil)
	if err != nil {
		return fmt.Errorf("consume coupon usage: %w", err)
	}
	if !ok {
		return apperr.ErrCouponExhausted
	}

	if err := s.discountRepo.CreateOrderDiscount(ctx, tx, orderID, discount.ID); err != nil {
		return fmt.Errorf("record order discount: %w", err)
	}

	return nil
}

func (s *discountServiceImpl) couponActive(d *model.Discount) bool {
	now := s.now()
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

func discountMatchesItem(d *model.Discount, item dto.QuoteItem) bool {
	switch d.Scope {
	case model.ScopeProduct:
		return d.ProductID != nil && *d.ProductID == item.ProductID
	case model.ScopeVariant:
		return d.VariantID != nil && item.VariantID != nil && *d.VariantID == *item.VariantID
	}
	return false
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
