package handler

import (
	"github.com/labstack/echo/v4"

	"bkash-shop-backend/internal/dto"
	"bkash-shop-backend/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}

	order, err := h.orderService.CreateOrderFromCart(ctx, &req)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, order)
}

func (h *OrderHandler) AddCartItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return respondBadRequest(c, "invalid request body")
	}
	if req.SessionKey == "" || req.ProductID == "" {
		return respondBadRequest(c, "sessionKey and productId are required")
	}

	item, err := h.orderService.AddCartItem(ctx, &req)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, item)
}

func (h *OrderHandler) ListCart(c echo.Context) error {
	ctx := c.Request().Context()

	sessionKey := c.QueryParam("sessionKey")
	if sessionKey == "" {
		return respondBadRequest(c, "sessionKey is required")
	}

	items, err := h.orderService.ListCart(ctx, sessionKey)
	if err != nil {
		return respondError(c, err)
	}

	return respondOK(c, items)
}
