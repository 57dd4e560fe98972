package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frostcrinkle/bakery-backend/api/routes"
	"github.com/frostcrinkle/bakery-backend/internal/address"
	"github.com/frostcrinkle/bakery-backend/internal/auth"
	"github.com/frostcrinkle/bakery-backend/internal/cart"
	"github.com/frostcrinkle/bakery-backend/internal/checkout"
	"github.com/frostcrinkle/bakery-backend/internal/customers"
	"github.com/frostcrinkle/bakery-backend/internal/notifications"
	"github.com/frostcrinkle/bakery-backend/internal/orders"
	"github.com/frostcrinkle/bakery-backend/internal/payments"
	"github.com/frostcrinkle/bakery-backend/pkg/auth/session"
	"github.com/frostcrinkle/bakery-backend/pkg/config"
	"github.com/frostcrinkle/bakery-backend/pkg/db"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/metrics"
	"github.com/frostcrinkle/bakery-backend/pkg/migrate"
	"github.com/frostcrinkle/bakery-backend/pkg/outbox"
	"github.com/frostcrinkle/bakery-backend/pkg/razorpay"
	"github.com/frostcrinkle/bakery-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	customersRepo := customers.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.NewServiceParams{
		Customers:   customersRepo,
		Sessions:    sessionManager,
		JWTConfig:   cfg.JWT,
		PasswordCfg: cfg.Password,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cart.NewServiceParams{
		Repo:   cartRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	razorpayClient, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	intentsRepo := payments.NewRepository(dbClient.DB())
	paymentsService, err := payments.NewService(payments.NewServiceParams{
		Carts:   cartService,
		Repo:    intentsRepo,
		Gateway: razorpayClient,
		Metrics: checkoutMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewServiceParams{
		Repo:   notifications.NewRepository(dbClient.DB()),
		Cache:  redisClient,
		Bus:    notifications.NewBus(),
		Config: cfg.Notifications,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(orders.NewServiceParams{
		Tx:            dbClient,
		Repo:          orders.NewRepository(dbClient.DB()),
		Notifications: notificationsService,
		Outbox:        outboxService,
		Metrics:       checkoutMetrics,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.NewServiceParams{
		Tx:            dbClient,
		Repo:          checkout.NewRepository(dbClient.DB()),
		Carts:         cartService,
		CartRepo:      cartRepo,
		Payments:      paymentsService,
		Intents:       intentsRepo,
		Resolver:      address.NewResolver(cfg.Delivery),
		Customers:     customersRepo,
		Notifications: notificationsService,
		Outbox:        outboxService,
		Metrics:       checkoutMetrics,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		AuthService:    authService,
		CartService:    cartService,
		Payments:       paymentsService,
		Checkout:       checkoutService,
		Orders:         ordersService,
		Notifications:  notificationsService,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
