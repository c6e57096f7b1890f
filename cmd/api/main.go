package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bkash-shop-backend/internal/client"
	"bkash-shop-backend/internal/config"
	"bkash-shop-backend/internal/repository"
	"bkash-shop-backend/internal/server"
	"bkash-shop-backend/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db := client.InitMysqlClient(cfg.DatabaseURL)

	creds := client.NewCredentialCache()
	bkashClient := client.NewBkashClient(&cfg.Bkash, creds, logger)

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	stockRepo := repository.NewStockRepository(db)

	if cfg.Environment.Name == "development" {
		if err := productRepo.Seed(context.Background()); err != nil {
			logger.Warn("seed products", zap.Error(err))
		}
	}

	discountService := service.NewDiscountService(productRepo, discountRepo, logger)
	orderService := service.NewOrderService(db, orderRepo, cartRepo, productRepo, stockRepo, discountService, logger)
	checkoutService := service.NewCheckoutService(
		db,
		bkashClient,
		orderRepo,
		paymentRepo,
		discountService,
		cfg.BaseURL+"/api/checkout/callback",
		cfg.Redirect.SuccessURL,
		cfg.Redirect.FailureURL,
		logger,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(checkoutService, orderService, discountService, []byte(cfg.AdminJWTSecret), logger)

	logger.Info("Starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("Signal received, starting graceful shutdown...")

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}

func newLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format != "json" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
