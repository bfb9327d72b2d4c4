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

	"github.com/angelmondragon/tradeflow-backend/api/routes"
	"github.com/angelmondragon/tradeflow-backend/internal/cart"
	"github.com/angelmondragon/tradeflow-backend/internal/checkout"
	"github.com/angelmondragon/tradeflow-backend/internal/inventory"
	"github.com/angelmondragon/tradeflow-backend/internal/orders"
	"github.com/angelmondragon/tradeflow-backend/internal/users"
	"github.com/angelmondragon/tradeflow-backend/pkg/config"
	"github.com/angelmondragon/tradeflow-backend/pkg/db"
	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
	"github.com/angelmondragon/tradeflow-backend/pkg/metrics"
	"github.com/angelmondragon/tradeflow-backend/pkg/migrate"
	"github.com/angelmondragon/tradeflow-backend/pkg/outbox"
	"github.com/angelmondragon/tradeflow-backend/pkg/redis"
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
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gdb := dbClient.DB()
	cartRepo := cart.NewRepository(gdb)
	ordersRepo := orders.NewRepository(gdb)
	inv := inventory.NewRepository(gdb)
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)
	checkoutCfg := checkout.ConfigFrom(cfg.Checkout)

	cartSvc, err := cart.NewService(cartRepo, inv)
	if err != nil {
		return err
	}
	checkoutSvc, err := checkout.NewService(checkout.Params{
		Tx:        dbClient,
		Cart:      cartRepo,
		Orders:    ordersRepo,
		Inventory: inv,
		Users:     users.NewRepository(gdb),
		Outbox:    emitter,
		Metrics:   metrics.NewCheckoutMetrics(reg),
		Logger:    logg,
		Config:    checkoutCfg,
	})
	if err != nil {
		return err
	}
	ordersSvc, err := orders.NewService(ordersRepo, inv, dbClient, emitter, checkoutCfg.Retry, logg)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:           cfg,
		Logger:           logg,
		DBPinger:         dbClient,
		RedisPinger:      redisClient,
		IdempotencyStore: redisClient,
		Gatherer:         reg,
		HTTPMetrics:      metrics.NewHTTPMetrics(reg),
		Cart:             cartSvc,
		Checkout:         checkoutSvc,
		Orders:           ordersSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
