package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bkash-shop-backend/internal/dto"
	"bkash-shop-backend/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) CreatePayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}
	if req.OrderID == "" {
		return respondBadRequest(c, "orderId is required")
	}
	if req.PayToken == "" {
		return respondBadRequest(c, "payToken is required")
	}

	result, err := h.checkoutService.Create(ctx, req.OrderID, req.PayToken, req.PayerReference)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, result)
}

// Callback is invoked by bKash after the user leaves the hosted checkout.
// The provider expects a redirect, never JSON, so every branch resolves to
// one.
func (h *CheckoutHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	paymentID := c.QueryParam("paymentID")
	status := c.QueryParam("status")

	redirect := h.checkoutService.Callback(ctx, paymentID, status)

	return c.Redirect(http.StatusFound, redirect)
}

func (h *CheckoutHandler) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	trxID := c.Param("trxID")
	if trxID == "" {
		return respondBadRequest(c, "trxID is required")
	}

	refund, err := h.checkoutService.Refund(ctx, trxID)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, map[string]interface{}{"refund": refund})
}
