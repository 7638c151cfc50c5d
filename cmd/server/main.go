package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ecommerce-backend/internal/cache"
	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/controller"
	"ecommerce-backend/internal/logger"
	"ecommerce-backend/internal/metrics"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/rabbit"
	"ecommerce-backend/internal/repository"
	"ecommerce-backend/internal/server"
	"ecommerce-backend/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, err := logger.New(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

func closeRedis(rdb *redis.Client, err *error) {
	*err = multierr.Append(*err, rdb.Close())
}

func run(cfg *config.Config, logg *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return fmt.Errorf("connecting to mongo: %w", err)
	}
	defer func() {
		err = multierr.Append(err, client.Disconnect(context.Background()))
	}()
	if err := client.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(cfg.Mongo.DBName)
	if err := repository.EnsureIndexes(connectCtx, db); err != nil {
		return fmt.Errorf("ensuring indexes: %w", err)
	}

	// Redis is optional
	var (
		numbers    service.PurchaseNumberGenerator = cache.NewRandomPurchaseNumbers()
		salesCache service.SalesCache
	)
	if cfg.Redis.URL != "" {
		rdb, redisErr := cache.New(ctx, cfg.Redis.URL)
		if redisErr != nil {
			return redisErr
		}
		defer closeRedis(rdb, &err)
		numbers = cache.NewPurchaseNumbers(rdb)
		salesCache = cache.NewSalesSummaryCache(rdb, cfg.Redis.SalesCacheTTL)
	} else {
		logg.Warn("REDIS_URL not set; using random purchase numbers and no sales cache")
	}

	// RabbitMQ
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	defer func() {
		err = multierr.Append(err, conn.Close())
	}()
	pubCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("opening publish channel: %w", err)
	}
	if err := rabbit.DeclareTopology(pubCh, cfg.Rabbit); err != nil {
		return err
	}
	orderEvents := rabbit.NewPublisher(pubCh, cfg.Rabbit.OrderEventsExchange)
	accountEvents := rabbit.NewPublisher(pubCh, cfg.Rabbit.AccountEventsExchange)

	// Repositories and services
	m := metrics.New()
	users := repository.NewMongoUserRepository(db)
	products := repository.NewMongoProductRepository(db)

	orders := service.NewOrderService(service.OrderServiceDeps{
		Orders:   repository.NewMongoOrderRepository(db),
		Tracking: repository.NewMongoTrackingRepository(db),
		Users:    users,
		Products: products,
		Numbers:  numbers,
		Events:   orderEvents,
		Cache:    salesCache,
		Metrics:  m.Orders,
		Log:      logg.Named("orders"),
	})
	catalog := service.NewCatalogService(products, repository.NewMongoCategoryRepository(db), repository.NewMongoAuditLogRepository(db), logg.Named("catalog"))
	accounts := service.NewUserService(users, cfg.Password.BcryptCost, logg.Named("users"))
	auth := service.NewAuthService(users, repository.NewMongoPasswordResetRepository(db), accountEvents, cfg.JWT, cfg.Password, logg.Named("auth"))

	if !cfg.Rabbit.DisableConsumers {
		consumeCh, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("opening consume channel: %w", err)
		}
		if err := rabbit.SetupConsumers(ctx, consumeCh, cfg.Rabbit, orders, logg.Named("rabbit")); err != nil {
			return err
		}
	}

	router := server.NewRouter(server.Deps{
		Auth:       auth,
		Orders:     controller.NewOrderController(orders, logg),
		Catalog:    controller.NewCatalogController(catalog, logg),
		Customers:  controller.NewUserController(accounts, model.RoleCustomer, logg),
		Staff:      controller.NewUserController(accounts, model.RoleStaff, logg),
		Accounts:   controller.NewAuthController(auth, logg),
		Metrics:    m,
		Log:        logg,
		Production: !cfg.App.IsDev(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
