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

	"github.com/quotedesk/quotedesk-backend/api/routes"
	"github.com/quotedesk/quotedesk-backend/internal/catalog"
	"github.com/quotedesk/quotedesk-backend/internal/gateway"
	"github.com/quotedesk/quotedesk-backend/internal/orders"
	"github.com/quotedesk/quotedesk-backend/internal/quotations"
	"github.com/quotedesk/quotedesk-backend/internal/resolution"
	"github.com/quotedesk/quotedesk-backend/internal/suppliers"
	"github.com/quotedesk/quotedesk-backend/pkg/config"
	"github.com/quotedesk/quotedesk-backend/pkg/db"
	"github.com/quotedesk/quotedesk-backend/pkg/logger"
	"github.com/quotedesk/quotedesk-backend/pkg/metrics"
	"github.com/quotedesk/quotedesk-backend/pkg/migrate"
	"github.com/quotedesk/quotedesk-backend/pkg/redis"
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	quotationMetrics := metrics.NewQuotationMetrics(registry)

	quotationRepo := quotations.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	supplierRepo := suppliers.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	quotationSvc := quotations.NewService(
		dbClient, quotationRepo, catalogRepo, supplierRepo,
		logg, quotationMetrics, cfg.Gateway.TokenBytes,
	)
	gatewaySvc := gateway.NewService(
		dbClient, quotationRepo, catalogRepo, supplierRepo,
		redisClient, logg, quotationMetrics,
	)
	locker, err := resolution.NewRedisLocker(redisClient, cfg.Resolution.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build resolution locker", err)
		os.Exit(1)
	}
	resolverSvc := resolution.NewService(
		dbClient, quotationRepo, orderRepo, locker, logg, quotationMetrics,
	)

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient, registry,
			quotationSvc, gatewaySvc, resolverSvc,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeErr := multierr.Combine(redisClient.Close(), dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "error closing backing stores", closeErr)
		os.Exit(1)
	}
}
