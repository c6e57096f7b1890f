package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "Initiated"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentCancelled PaymentStatus = "Cancelled"
	PaymentRefunded  PaymentStatus = "Refunded"
)

type CartStatus string

const (
	CartInCart  CartStatus = "IN_CART"
	CartOrdered CartStatus = "ORDERED"
)

const StockReasonSale = "SALE"

type Product struct {
	ID       string `gorm:"primaryKey;size:64;not null"` // product sku
	Name     string `gorm:"size:128;not null"`
	Price    int64  `gorm:"not null"` // integer currency units
	Currency string `gorm:"size:8;not null"`
	Stock    int64  `gorm:"not null"`
	Sales    int64  `gorm:"not null"`

	Variants []ProductVariant

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductVariant struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID string `gorm:"size:64;index;not null"`
	Name      string `gorm:"size:64;not null"`
	// Size is how many stock units one quantity of this variant consumes.
	Size  int32  `gorm:"not null;default:1"`
	Price *int64 // overrides product price when set
}

type CartItem struct {
	ID         uint       `gorm:"primaryKey"`
	SessionKey string     `gorm:"size:64;index;not null"`
	ProductID  string     `gorm:"size:64;index;not null"`
	VariantID  *uint      `gorm:"index"`
	Quantity   int32      `gorm:"not null"`
	Status     CartStatus `gorm:"size:16;index;not null"` // IN_CART, ORDERED
	// FK → order.id, set when the item is consumed by an order
	OrderID *string `gorm:"size:64;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID             string      `gorm:"primaryKey;size:64;not null"`
	Invoice        string      `gorm:"size:64;uniqueIndex"`
	Amount         int64       `gorm:"not null"` // payable total after discounts
	DiscountAmount int64       `gorm:"not null"`
	Coupon         string      `gorm:"size:32;index"`
	IsPaid         bool        `gorm:"index;not null"`
	Status         OrderStatus `gorm:"size:32;index;not null"`
	Method         string      `gorm:"size:32"` // payment method, set on completion
	// PayToken authorizes payment initiation for this order; possession of
	// it is the only credential a guest checkout has.
	PayToken string `gorm:"size:64;not null"`

	// customer reference: registered account or guest contact snapshot
	CustomerID   *string `gorm:"size:64;index"`
	GuestName    string  `gorm:"size:128"`
	GuestPhone   string  `gorm:"size:32"`
	GuestEmail   string  `gorm:"size:128"`
	GuestAddress string  `gorm:"size:256"`

	Items []OrderItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is a denormalized snapshot of a cart line at order time.
type OrderItem struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   string `gorm:"size:64;index;not null"`
	ProductID string `gorm:"size:64;index;not null"`
	VariantID *uint  `gorm:"index"`
	Quantity  int32  `gorm:"not null"`
	UnitPrice int64  `gorm:"not null"`

	CreatedAt time.Time
}

// Payment is one payment attempt. A retried checkout creates a new row
// rather than mutating a terminal one.
type Payment struct {
	ID       uint          `gorm:"primaryKey"`
	OrderID  string        `gorm:"size:64;index;not null"`
	Provider string        `gorm:"size:32;not null"`
	Amount   int64         `gorm:"not null"`
	Status   PaymentStatus `gorm:"size:32;index;not null"`

	GatewayPaymentID  string `gorm:"size:64;index"`
	GatewayTrxID      string `gorm:"size:64;index"`
	TransactionStatus string `gorm:"size:32"`
	// raw gateway payloads kept verbatim for audit
	GatewayRequest  string `gorm:"type:text"`
	GatewayResponse string `gorm:"type:text"`

	RefundedAmount int64
	RefundTrxID    string `gorm:"size:64"`
	RefundStatus   string `gorm:"size:32"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type DiscountScope string

const (
	ScopeOrder   DiscountScope = "ORDER"
	ScopeProduct DiscountScope = "PRODUCT"
	ScopeVariant DiscountScope = "VARIANT"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Discount struct {
	ID    uint          `gorm:"primaryKey"`
	Scope DiscountScope `gorm:"size:16;index;not null"`
	// Code is required for ORDER scope; item-scoped discounts with no code
	// apply automatically.
	Code      string  `gorm:"size:32;index"`
	ProductID *string `gorm:"size:64;index"`
	VariantID *uint   `gorm:"index"`

	Type  DiscountType `gorm:"size:16;not null"`
	Value int64        `gorm:"not null"` // percent or fixed units, per Type

	MaxUsage  *int32
	UsedCount int32 `gorm:"not null"`

	StartDate *time.Time
	EndDate   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderDiscount links a consumed coupon to the order that consumed it.
// Its uniqueness is the guard against double consumption on callback retry.
type OrderDiscount struct {
	ID         uint   `gorm:"primaryKey"`
	OrderID    string `gorm:"size:64;uniqueIndex:idx_order_discount;not null"`
	DiscountID uint   `gorm:"uniqueIndex:idx_order_discount;not null"`
	CreatedAt  time.Time
}

// StockLog is an append-only record of stock movement, one row per
// stock-affecting line item per order.
type StockLog struct {
	ID        uint    `gorm:"primaryKey"`
	ProductID string  `gorm:"size:64;index;not null"`
	VariantID *uint   `gorm:"index"`
	OrderID   *string `gorm:"size:64;index"`
	Quantity  int64   `gorm:"not null"` // signed delta
	Reason    string  `gorm:"size:32;not null"`
	CreatedAt time.Time
}
