package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"bkash-shop-backend/internal/apperr"
	"bkash-shop-backend/internal/dto"
)

func respondOK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, dto.Envelope{Success: true, Data: data})
}

// respondError maps domain errors onto the HTTP taxonomy. Gateway errors
// deliberately surface a generic message; the raw provider body stays in
// the logs.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "internal error"

	var gatewayErr *apperr.GatewayError

	switch {
	case errors.Is(err, apperr.ErrOrderNotFound),
		errors.Is(err, apperr.ErrPaymentNotFound),
		errors.Is(err, apperr.ErrCouponNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, apperr.ErrInvalidPayToken):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, apperr.ErrAlreadyPaid),
		errors.Is(err, apperr.ErrCouponExhausted),
		errors.Is(err, apperr.ErrCouponInactive):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, apperr.ErrEmptyCart):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.As(err, &gatewayErr):
		status = http.StatusBadGateway
		message = "payment gateway error"
	}

	return c.JSON(status, dto.Envelope{Success: false, Message: message})
}

func respondBadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, dto.Envelope{Success: false, Message: message})
}
