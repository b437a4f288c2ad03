package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/cart"
	"github.com/campus-tuckshop/tuckshop-service/internal/clients"
	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/events"
	"github.com/campus-tuckshop/tuckshop-service/internal/handlers"
	"github.com/campus-tuckshop/tuckshop-service/internal/repository"
	"github.com/campus-tuckshop/tuckshop-service/internal/server"
	"github.com/campus-tuckshop/tuckshop-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{"port": cfg.Server.Port}).Info("Starting tuckshop-service")

	db, err := initDatabase(cfg, logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"error": err.Error()}).Fatal("Failed to connect to database")
	}
	defer db.Close()

	itemRepo := repository.NewPostgresItemRepository(db, logger)
	accountRepo := repository.NewPostgresAccountRepository(db, logger)
	orderRepo := repository.NewPostgresOrderRepository(db, logger)
	txManager := repository.NewPostgresTxManager(db, cfg.Checkout.MaxRetries, logger)
	catalogCache := repository.NewRedisCatalogCache(cfg.Redis, logger)

	cartManager := cart.NewManager(cart.NewRedisStore(cfg.Redis), logger)

	eventPublisher := events.NewKafkaPublisher(cfg.Kafka, logger)
	defer eventPublisher.Close()

	identityClient := clients.NewHTTPIdentityClient(cfg.Identity, logger)

	checkoutService := service.NewCheckoutService(
		itemRepo, accountRepo, orderRepo, txManager, catalogCache, eventPublisher, cfg, logger)
	catalogService := service.NewCatalogService(
		itemRepo, txManager, catalogCache, eventPublisher, cfg, logger)
	accountService := service.NewAccountService(accountRepo, txManager, cfg, logger)

	h := handlers.NewHandlers(
		catalogService, checkoutService, accountService, cartManager, identityClient, cfg, logger)

	srv := server.New(h, cfg)

	go func() {
		logger.WithFields(logrus.Fields{
			"port":          cfg.Server.Port,
			"stock_events":  cfg.Features.EnableStockEvents,
			"catalog_cache": cfg.Features.EnableCatalogCache,
		}).Info("Server starting")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithFields(logrus.Fields{"error": err.Error()}).Fatal("Server failed to start")
		}
	}()

	approvalConsumer := events.NewKafkaConsumer(cfg.Kafka, checkoutService, logger)
	go func() {
		if err := approvalConsumer.Start(context.Background()); err != nil && err != context.Canceled {
			logger.WithFields(logrus.Fields{"error": err.Error()}).Error("Approval consumer failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	approvalConsumer.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithFields(logrus.Fields{"error": err.Error()}).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDatabase(cfg *config.Config, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	}).Info("Database connected")

	return db, nil
}
