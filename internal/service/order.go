package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bkash-shop-backend/internal/apperr"
	"bkash-shop-backend/internal/dto"
	"bkash-shop-backend/internal/model"
	"bkash-shop-backend/internal/repository"
)

// orderTxTimeout bounds the order-creation transaction; it loops over
// dependent writes, so it gets more room than a single query would.
const orderTxTimeout = 30 * time.Second

type OrderService interface {
	CreateOrderFromCart(ctx context.Context, req *dto.CreateOrderRequest) (*dto.OrderData, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	AddCartItem(ctx context.Context, req *dto.AddCartItemRequest) (*model.CartItem, error)
	ListCart(ctx context.Context, sessionKey string) ([]*model.CartItem, error)
}

type orderServiceImpl struct {
	db              *gorm.DB
	orderRepo       repository.OrderRepository
	cartRepo        repository.CartRepository
	productRepo     repository.ProductRepository
	stockRepo       repository.StockRepository
	discountService DiscountService
	logger          *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	discountService DiscountService,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		db:              db,
		orderRepo:       orderRepo,
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		stockRepo:       stockRepo,
		discountService: discountService,
		logger:          logger,
	}
}

// CreateOrderFromCart reserves the given cart items and builds an order
// from them in one transaction: order row, cart items flipped to ORDERED,
// stock decremented per line, stock log appended. Either all of it lands
// or none of it does.
func (s *orderServiceImpl) CreateOrderFromCart(ctx context.Context, req *dto.CreateOrderRequest) (*dto.OrderData, error) {
	if len(req.CartItemIDs) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	items, err := s.cartRepo.FindInCart(ctx, s.db, req.CartItemIDs)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	quoteItems := make([]dto.QuoteItem, len(items))
	itemIDs := make([]uint, len(items))
	for i, item := range items {
		quoteItems[i] = dto.QuoteItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
		itemIDs[i] = item.ID
	}

	quote, err := s.discountService.Quote(ctx, req.Coupon, quoteItems)
	if err != nil {
		return nil, fmt.Errorf("quote order: %w", err)
	}

	variantSizes, err := s.variantSizes(ctx, items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:             uuid.NewString(),
		Invoice:        uuid.NewString(),
		Amount:         quote.GrandTotalAfterDiscount,
		DiscountAmount: quote.OrderDiscountAmount,
		Coupon:         quote.Coupon,
		Status:         model.OrderPending,
		PayToken:       uuid.NewString(),
		GuestName:      req.Customer.Name,
		GuestPhone:     req.Customer.Phone,
		GuestEmail:     req.Customer.Email,
		GuestAddress:   req.Customer.Address,
	}
	if req.Customer.CustomerID != "" {
		id := req.Customer.CustomerID
		order.CustomerID = &id
	}

	for i, item := range items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: quote.Lines[i].UnitPrice,
		})
	}

	txCtx, cancel := context.WithTimeout(ctx, orderTxTimeout)
	defer cancel()

	err = s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(txCtx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if err := s.cartRepo.MarkOrdered(txCtx, tx, itemIDs, order.ID); err != nil {
			return fmt.Errorf("mark cart items ordered: %w", err)
		}

		for _, item := range items {
			size := int64(1)
			if item.VariantID != nil {
				size = variantSizes[*item.VariantID]
			}
			delta := size * int64(item.Quantity)

			if err := s.stockRepo.DecrementStock(txCtx, tx, item.ProductID, delta, item.Quantity); err != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
			}

			if err := s.stockRepo.AppendLog(txCtx, tx, &model.StockLog{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				OrderID:   &order.ID,
				Quantity:  -delta,
				Reason:    model.StockReasonSale,
			}); err != nil {
				return fmt.Errorf("append stock log for %s: %w", item.ProductID, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.OrderData{
		OrderID:        order.ID,
		Invoice:        order.Invoice,
		Amount:         order.Amount,
		DiscountAmount: order.DiscountAmount,
		PayToken:       order.PayToken,
		Status:         string(order.Status),
	}, nil
}

func (s *orderServiceImpl) variantSizes(ctx context.Context, items []*model.CartItem) (map[uint]int64, error) {
	var ids []uint
	for _, item := range items {
		if item.VariantID != nil {
			ids = append(ids, *item.VariantID)
		}
	}
	sizes := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return sizes, nil
	}

	variants, err := s.productRepo.FindVariants(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	for _, v := range variants {
		sizes[v.ID] = int64(v.Size)
	}
	for _, id := range ids {
		if _, ok := sizes[id]; !ok {
			return nil, fmt.Errorf("variant %d not found", id)
		}
	}

	return sizes, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *orderServiceImpl) AddCartItem(ctx context.Context, req *dto.AddCartItemRequest) (*model.CartItem, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, fmt.Errorf("product %s: %w", req.ProductID, err)
	}

	item := &model.CartItem{
		SessionKey: req.SessionKey,
		ProductID:  req.ProductID,
		VariantID:  req.VariantID,
		Quantity:   req.Quantity,
		Status:     model.CartInCart,
	}
	if err := s.cartRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return item, nil
}

func (s *orderServiceImpl) ListCart(ctx context.Context, sessionKey string) ([]*model.CartItem, error) {
	return s.cartRepo.ListBySession(ctx, sessionKey)
}
