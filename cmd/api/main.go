package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/uretimhub/uretimhub-backend/api/controllers"
	"github.com/uretimhub/uretimhub-backend/api/routes"
	"github.com/uretimhub/uretimhub-backend/internal/cart"
	checkoutsvc "github.com/uretimhub/uretimhub-backend/internal/checkout"
	"github.com/uretimhub/uretimhub-backend/internal/interactions"
	"github.com/uretimhub/uretimhub-backend/internal/listings"
	"github.com/uretimhub/uretimhub-backend/internal/notifications"
	"github.com/uretimhub/uretimhub-backend/internal/orders"
	"github.com/uretimhub/uretimhub-backend/pkg/config"
	"github.com/uretimhub/uretimhub-backend/pkg/db"
	"github.com/uretimhub/uretimhub-backend/pkg/logger"
	"github.com/uretimhub/uretimhub-backend/pkg/migrate"
	"github.com/uretimhub/uretimhub-backend/pkg/outbox"
	"github.com/uretimhub/uretimhub-backend/pkg/redis"
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

	cfg.Service.Kind = "api"

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

	gormDB := dbClient.DB()
	productRepo := listings.NewProductRepository(gormDB)
	productionRepo := listings.NewProductionListingRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	listingService, err := listings.NewService(productRepo, productionRepo, dbClient, outboxService, logg, cfg.Lifecycle.ActiveWindow)
	if err != nil {
		logg.Error(context.Background(), "failed to create listing service", err)
		os.Exit(1)
	}

	interactionService, err := interactions.NewService(interactions.NewRepository(gormDB), productRepo, productionRepo, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create interaction service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(gormDB), productRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(gormDB)
	orderService, err := orders.NewService(orderRepo, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(cart.NewRepository(gormDB), orderRepo, productRepo, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		Redis:         redisClient,
		Pingers:       map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
		Listings:      listingService,
		Interactions:  interactionService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        orderService,
		Notifications: notificationService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
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

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
