package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"bkash-shop-backend/internal/handler"
	"bkash-shop-backend/internal/middleware"
	"bkash-shop-backend/internal/service"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	discountHandler *handler.DiscountHandler
	adminSecret     []byte
}

func NewServer(
	checkoutService service.CheckoutService,
	orderService service.OrderService,
	discountService service.DiscountService,
	adminSecret []byte,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Error(v.Error),
			)
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		orderHandler:    handler.NewOrderHandler(orderService),
		discountHandler: handler.NewDiscountHandler(discountService),
		adminSecret:     adminSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.POST("/cart", s.orderHandler.AddCartItem)
	api.GET("/cart", s.orderHandler.ListCart)

	api.POST("/orders", s.orderHandler.CreateOrder)
	api.GET("/orders/:id", s.orderHandler.GetOrder)

	api.POST("/discounts/quote", s.discountHandler.Quote)

	// -------- bkash checkout --------
	checkout := api.Group("/checkout")
	checkout.POST("/create", s.checkoutHandler.CreatePayment)
	checkout.GET("/callback", s.checkoutHandler.Callback)
	checkout.POST("/refund/:trxID", s.checkoutHandler.Refund, middleware.AdminAuth(s.adminSecret))
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
