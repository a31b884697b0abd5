package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shopcore-backend/api/routes"
	"github.com/angelmondragon/shopcore-backend/internal/cart"
	"github.com/angelmondragon/shopcore-backend/internal/checkout"
	"github.com/angelmondragon/shopcore-backend/internal/coupons"
	"github.com/angelmondragon/shopcore-backend/internal/discounts"
	"github.com/angelmondragon/shopcore-backend/internal/inventory"
	"github.com/angelmondragon/shopcore-backend/internal/orders"
	"github.com/angelmondragon/shopcore-backend/internal/payments"
	"github.com/angelmondragon/shopcore-backend/pkg/config"
	"github.com/angelmondragon/shopcore-backend/pkg/db"
	"github.com/angelmondragon/shopcore-backend/pkg/logger"
	"github.com/angelmondragon/shopcore-backend/pkg/metrics"
	"github.com/angelmondragon/shopcore-backend/pkg/migrate"
	"github.com/angelmondragon/shopcore-backend/pkg/outbox"
	"github.com/angelmondragon/shopcore-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Console:     cfg.App.LogFormat == "console",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shopMetrics := metrics.NewShopMetrics(promRegistry)

	gormDB := dbClient.DB()
	cartRepo := cart.NewRepository(gormDB)
	couponRepo := coupons.NewRepository(gormDB)
	discountRepo := discounts.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	ledger := inventory.NewLedger(gormDB)
	emitter := outbox.NewService(outbox.NewRepository(gormDB), logg)

	resolver, err := discounts.NewResolver(discountRepo, time.Now)
	if err != nil {
		return err
	}
	engine, err := cart.NewEngine(resolver, coupons.NewValidator(time.Now))
	if err != nil {
		return err
	}

	gateway, err := payments.NewSandboxGateway(redisClient, cfg.Gateway)
	if err != nil {
		return err
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:      cartRepo,
		Inventory: ledger,
		Coupons:   couponRepo,
		Engine:    engine,
		Tx:        dbClient,
		Metrics:   shopMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	couponService, err := coupons.NewService(couponRepo, logg)
	if err != nil {
		return err
	}

	discountService, err := discounts.NewService(discountRepo)
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Inventory: ledger,
		Outbox:    emitter,
		Tx:        dbClient,
		Metrics:   shopMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:     cartRepo,
		Engine:    engine,
		Orders:    ordersRepo,
		Addresses: checkout.NewAddressRepository(gormDB),
		Inventory: ledger,
		Coupons:   couponRepo,
		Outbox:    emitter,
		Gateway:   gateway,
		Tx:        dbClient,
		Config:    cfg.Checkout,
		Metrics:   shopMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Orders:  ordersRepo,
		Gateway: gateway,
		Outbox:  emitter,
		Tx:      dbClient,
		Metrics: shopMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:        dbClient,
			Cache:     redisClient,
			Metrics:   promRegistry,
			Cart:      cartService,
			Coupons:   couponService,
			Discounts: discountService,
			Orders:    ordersService,
			Checkout:  checkoutService,
			Payments:  paymentsService,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
