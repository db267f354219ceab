package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/grandmarche/backend/api/routes"
	"github.com/grandmarche/backend/internal/audit"
	"github.com/grandmarche/backend/internal/auth"
	"github.com/grandmarche/backend/internal/coupons"
	"github.com/grandmarche/backend/internal/delivery"
	"github.com/grandmarche/backend/internal/disputes"
	"github.com/grandmarche/backend/internal/drivers"
	"github.com/grandmarche/backend/internal/notifications"
	"github.com/grandmarche/backend/internal/orders"
	"github.com/grandmarche/backend/internal/products"
	"github.com/grandmarche/backend/internal/settlement"
	"github.com/grandmarche/backend/internal/users"
	"github.com/grandmarche/backend/pkg/config"
	"github.com/grandmarche/backend/pkg/db"
	"github.com/grandmarche/backend/pkg/logger"
	"github.com/grandmarche/backend/pkg/metrics"
	"github.com/grandmarche/backend/pkg/migrate"
	"github.com/grandmarche/backend/pkg/outbox"
	"github.com/grandmarche/backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, pipelineMetrics)
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
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildServices wires every domain service against a single database handle.
// Construction order follows the dependency chain: settlement, coupons and
// delivery feed the order state machine, which in turn feeds disputes.
func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	pipelineMetrics *metrics.PipelineMetrics,
) (routes.Services, error) {
	gormDB := dbClient.DB()

	usersRepo := users.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		RateLimiter:    redisClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		RateLimits:     cfg.AuthRateLimit,
	})
	if err != nil {
		return routes.Services{}, err
	}

	auditSvc, err := audit.NewService(audit.NewRepository(gormDB), logg)
	if err != nil {
		return routes.Services{}, err
	}

	productsSvc, err := products.NewService(products.NewRepository(gormDB), outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	settlementSvc, err := settlement.NewService(settlement.NewRepository(gormDB), dbClient, pipelineMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	couponsSvc, err := coupons.NewService(coupons.NewRepository(gormDB), dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	deliverySvc, err := delivery.NewService(delivery.NewRepository(gormDB), usersRepo, cfg.Delivery)
	if err != nil {
		return routes.Services{}, err
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersSvc, err := orders.NewService(
		ordersRepo,
		dbClient,
		outboxSvc,
		settlementSvc,
		couponsSvc,
		deliverySvc,
		deliverySvc,
		couponsSvc,
		productsSvc,
		pipelineMetrics,
	)
	if err != nil {
		return routes.Services{}, err
	}

	disputesSvc, err := disputes.NewService(disputes.NewRepository(gormDB), ordersRepo, ordersSvc, dbClient, outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	driversSvc, err := drivers.NewService(drivers.NewRepository(gormDB))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authSvc,
		Orders:        ordersSvc,
		Disputes:      disputesSvc,
		Coupons:       couponsSvc,
		Settlement:    settlementSvc,
		Products:      productsSvc,
		Drivers:       driversSvc,
		Delivery:      deliverySvc,
		Notifications: notificationsSvc,
		Audit:         auditSvc,
	}, nil
}
