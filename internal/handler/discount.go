package handler

import (
	"github.com/labstack/echo/v4"

	"bkash-shop-backend/internal/dto"
	"bkash-shop-backend/internal/service"
)

type DiscountHandler struct {
	discountService service.DiscountService
}

func NewDiscountHandler(discountService service.DiscountService) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
	}
}

// Quote is pure; clients may call it as often as they like while editing
// a cart.
func (h *DiscountHandler) Quote(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}
	if len(req.Items) == 0 {
		return respondBadRequest(c, "items are required")
	}

	breakdown, err := h.discountService.Quote(ctx, req.Code, req.Items)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, breakdown)
}
