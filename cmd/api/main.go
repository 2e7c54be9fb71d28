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

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/addresses"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/content"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/search"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/square"
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

	deps, err := buildDependencies(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Dependencies, error) {
	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:          catalog.NewRepository(gormDB),
		RetryAttempts: cfg.Catalog.RetryAttempts,
		RetryDelay:    cfg.Catalog.RetryDelay,
		Logger:        logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	contentService, err := content.NewService(content.NewRepository(gormDB))
	if err != nil {
		return routes.Dependencies{}, err
	}

	shippingService, err := shipping.NewService(shipping.ServiceParams{
		Loader:      shipping.NewRepository(gormDB),
		Cache:       redisClient,
		CacheTTL:    cfg.Checkout.ShippingCacheTTL,
		DefaultCost: cfg.Checkout.DefaultShippingCost,
		Logger:      logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	couponRepo := coupons.NewRepository(gormDB)
	couponService, err := coupons.NewService(coupons.ServiceParams{Repo: couponRepo, Logger: logg})
	if err != nil {
		return routes.Dependencies{}, err
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    cart.NewStore(redisClient, cfg.Checkout.CartTTL),
		Shipping: shippingService,
		Coupons:  couponService,
		Products: catalogService,
		Logger:   logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	addressService, err := addresses.NewService(addresses.NewRepository(gormDB), nil)
	if err != nil {
		return routes.Dependencies{}, err
	}

	var verifier payments.Verifier
	if cfg.Checkout.VerifyPayments {
		squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
		if err != nil {
			return routes.Dependencies{}, err
		}
		verifier, err = payments.NewVerifier(squareClient, payments.Money{
			Currency:     cfg.Checkout.Currency,
			MinorPerUnit: cfg.Checkout.MinorUnitsPerUnit,
		}, payments.BreakerSettings{}, logg)
		if err != nil {
			return routes.Dependencies{}, err
		}
	}

	orderRepo := orders.NewRepository(gormDB)
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:             dbClient,
		Cart:           cartService,
		Orders:         orderRepo,
		Coupons:        couponRepo,
		Outbox:         outboxService,
		Verifier:       verifier,
		VerifyPayments: cfg.Checkout.VerifyPayments,
		Vendors:        catalogService,
		Addresses:      addressService,
		Metrics:        metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:         logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:   orderRepo,
		Tx:     dbClient,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:     wishlist.NewRepository(gormDB),
		Products: catalogService,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	searchService, err := search.NewService(redisClient, cfg.Search.RecentLimit, cfg.Search.RecentTTL)
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Gatherer:    prometheus.DefaultGatherer,
		Catalog:     catalogService,
		Content:     contentService,
		Shipping:    shippingService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      ordersService,
		Addresses:   addressService,
		Wishlist:    wishlistService,
		Searches:    searchService,
	}, nil
}
