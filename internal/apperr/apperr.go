package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAlreadyPaid     = errors.New("order already paid")
	ErrInvalidPayToken = errors.New("invalid pay token")

	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponExhausted = errors.New("coupon usage limit reached")

	ErrEmptyCart = errors.New("no cart items available for order")
)

// GatewayError carries the raw provider response for logging while callers
// surface only a generic message to the client.
type GatewayError struct {
	Op         string
	StatusCode string
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bkash %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("bkash %s: statusCode=%s body=%s", e.Op, e.StatusCode, e.Body)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
