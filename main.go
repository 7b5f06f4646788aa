package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/inventory"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/quotes"
	"storefront/internal/reports"
	"storefront/internal/settings"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
	"storefront/internal/store/mongostore"
	"storefront/internal/upi"
	"storefront/internal/users"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.Load()
	cfg := config.AppEnv

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	st, closeStore := openStore(cfg, logger)
	defer closeStore()

	productCache := openCache(cfg, logger)

	sinks := []notify.Sink{notify.NewStoreSink(st.Notifications)}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := notify.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Warn("kafka unavailable, notifications stay local", zap.Error(err))
		} else {
			defer func() { _ = producer.Close() }()
			sinks = append(sinks, notify.NewKafkaSink(producer, cfg.NotificationTopic, logger))
			logger.Info("kafka notifications enabled", zap.String("topic", cfg.NotificationTopic))
		}
	}
	notifier := notify.NewNotifier(logger, sinks...)

	if cfg.JaegerEndpoint != "" {
		shutdownTracing, err := middleware.InitTracing("storefront", cfg.JaegerEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() { _ = shutdownTracing(context.Background()) }()
		}
	}

	holder, err := settings.Load(context.Background(), st.Settings, cfg, logger)
	if err != nil {
		logger.Fatal("load settings", zap.Error(err))
	}

	inv := inventory.NewService(st.Products, productCache, notifier, logger)
	orderSvc := orders.NewService(st, inv, notifier, logger)
	merchant := upi.Merchant{VPA: cfg.MerchantUPI, Name: cfg.MerchantName}
	userSvc := users.NewService(st, cfg.JWTSecret, cfg.AccessTokenTTL, logger)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := userSvc.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal("bootstrap admin", zap.Error(err))
		}
	}

	r := handlers.NewRouter(handlers.Deps{
		Config:   cfg,
		Logger:   logger,
		Health:   st.Health,
		Settings: holder,
		Catalog:  catalog.NewService(st.Products, st.Categories, productCache, logger),
		Cart:     cart.NewService(st.Carts, st.Products, logger),
		Orders:   orderSvc,
		Payments: payments.NewService(orderSvc, inv, notifier, merchant, cfg.WebhookSecret, logger),
		Quotes:   quotes.NewService(st, notifier, logger),
		Users:    userSvc,
		Reports:  reports.NewService(st, logger),
		Inbox:    notify.NewInbox(st.Notifications, logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(cfg config.Config, logger *zap.Logger) (*store.Store, func()) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New().Store(), func() {}
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		logger.Fatal("connect to mongo", zap.Error(err))
	}
	db := client.Database(cfg.DBName)
	logger.Info("mongo connected", zap.String("db", db.Name()))

	if err := database.EnsureIndexes(db, logger); err != nil {
		logger.Warn("index setup incomplete", zap.Error(err))
	}
	return mongostore.New(client, db), func() {
		_ = client.Disconnect(context.Background())
	}
}

func openCache(cfg config.Config, logger *zap.Logger) cache.ProductCache {
	if cfg.RedisAddr == "" {
		return cache.Nop{}
	}
	rdb, err := cache.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, product cache disabled", zap.Error(err))
		return cache.Nop{}
	}
	logger.Info("product cache enabled", zap.String("addr", cfg.RedisAddr))
	return cache.NewRedis(rdb, cfg.CacheTTL, logger)
}
