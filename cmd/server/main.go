package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"dentalsupply/docs"
	"dentalsupply/internal/auth"
	"dentalsupply/internal/cache"
	"dentalsupply/internal/config"
	"dentalsupply/internal/db"
	"dentalsupply/internal/events"
	"dentalsupply/internal/handler"
	"dentalsupply/internal/logger"
	"dentalsupply/internal/mailer"
	"dentalsupply/internal/metrics"
	"dentalsupply/internal/repository"
	"dentalsupply/internal/router"
	"dentalsupply/internal/service"
)

// @title Dental Supply Store API
// @version 1.0
// @description Storefront API for categories, guest and signed-in checkout, catalog and accounts.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		zlog.Fatal("database init", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zlog.Fatal("database migrate", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		zlog.Fatal("database pool", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()

	mail, err := mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, zlog)
	if err != nil {
		zlog.Fatal("mailer init", zap.Error(err))
	}
	if cfg.SMTPHost == "" {
		zlog.Warn("SMTP_HOST not set, outgoing email is disabled")
	}
	publisher := events.NewPublisher(cfg.RabbitMQURL, zlog)
	collector := metrics.NewCollector("dentalsupply")
	notifier := service.NewNotifier(mail, mailer.Composer{StoreName: cfg.StoreName, StoreURL: cfg.StoreURL}, publisher, collector, zlog)

	// Repositories
	categoryRepo := repository.NewCategoryRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	brandRepo := repository.NewBrandRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	checkoutStore := repository.NewCheckoutStore(gormDB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	otpStore := auth.NewOTPStore(cacheClient, cfg.OTPTTL)

	// Services
	categoryService := service.NewCategoryService(categoryRepo, productRepo, cacheClient, cfg.CategoryCacheTTL, collector, zlog)
	checkoutService := service.NewCheckoutService(checkoutStore, service.NewPasswordGenerator(), cfg.BcryptCost, notifier, collector, zlog)
	orderService := service.NewOrderService(orderRepo, userRepo, notifier, collector, zlog)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, otpStore, cfg.OTPTTL, cfg.BcryptCost, notifier, cacheClient, zlog)
	userService := service.NewUserService(userRepo, cacheClient)
	brandService := service.NewBrandService(brandRepo, productRepo, zlog)
	productService := service.NewProductService(productRepo, categoryRepo, brandRepo, zlog)

	e := echo.New()
	router.Register(e, cfg, zlog, collector, router.Handlers{
		Health:   handler.NewHealthHandler(handler.PingFunc(sqlDB.PingContext), cacheClient),
		Category: handler.NewCategoryHandler(categoryService),
		Order:    handler.NewOrderHandler(checkoutService, orderService),
		Auth:     handler.NewAuthHandler(authService),
		User:     handler.NewUserHandler(userService),
		Catalog:  handler.NewCatalogHandler(brandService, productService),
	})

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = host
	}
	zlog.Info("swagger documentation available", zap.String("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html"))

	go func() {
		addr := ":" + cfg.ServerPort
		zlog.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
	_ = sqlDB.Close()
	zlog.Info("server stopped")
}
