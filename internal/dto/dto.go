package dto

type CreatePaymentRequest struct {
	OrderID        string `json:"orderId"`
	PayToken       string `json:"payToken"`
	PayerReference string `json:"payerReference,omitempty"`
}

type CreatePaymentData struct {
	PaymentURL string `json:"paymentURL"`
	PaymentID  string `json:"paymentID"`
}

type RefundData struct {
	TrxID        string `json:"trxId"`
	RefundTrxID  string `json:"refundTrxId"`
	RefundStatus string `json:"refundStatus"`
	Amount       int64  `json:"amount"`
}

type CustomerInfo struct {
	CustomerID string `json:"customerId,omitempty"`
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
}

type CreateOrderRequest struct {
	CartItemIDs []uint       `json:"cartItemIds"`
	Customer    CustomerInfo `json:"customer"`
	Coupon      string       `json:"coupon,omitempty"`
}

type OrderData struct {
	OrderID        string `json:"orderId"`
	Invoice        string `json:"invoice"`
	Amount         int64  `json:"amount"`
	DiscountAmount int64  `json:"discountAmount"`
	PayToken       string `json:"payToken"`
	Status         string `json:"status"`
}

type AddCartItemRequest struct {
	SessionKey string `json:"sessionKey"`
	ProductID  string `json:"productId"`
	VariantID  *uint  `json:"variantId,omitempty"`
	Quantity   int32  `json:"quantity"`
}

type QuoteItem struct {
	ProductID string `json:"productId"`
	VariantID *uint  `json:"variantId,omitempty"`
	Quantity  int32  `json:"quantity"`
}

type QuoteRequest struct {
	Code  string      `json:"code,omitempty"`
	Items []QuoteItem `json:"items"`
}

type QuoteLine struct {
	ProductID           string `json:"productId"`
	VariantID           *uint  `json:"variantId,omitempty"`
	Quantity            int32  `json:"quantity"`
	UnitPrice           int64  `json:"unitPrice"`
	DiscountedUnitPrice int64  `json:"discountedUnitPrice"`
	LineTotal           int64  `json:"lineTotal"`
}

type QuoteBreakdown struct {
	Lines                   []QuoteLine `json:"lines"`
	Subtotal                int64       `json:"subtotal"`
	OrderDiscountAmount     int64       `json:"orderDiscountAmount"`
	GrandTotalAfterDiscount int64       `json:"grandTotalAfterDiscount"`
	Coupon                  string      `json:"coupon,omitempty"`
}

// Envelope is the uniform JSON response shape for API consumers.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
