package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sightlinehq/optishop-backend/api/routes"
	"github.com/sightlinehq/optishop-backend/internal/vendors"
	"github.com/sightlinehq/optishop-backend/internal/workshop"
	"github.com/sightlinehq/optishop-backend/pkg/config"
	"github.com/sightlinehq/optishop-backend/pkg/db"
	"github.com/sightlinehq/optishop-backend/pkg/logger"
	"github.com/sightlinehq/optishop-backend/pkg/metrics"
	"github.com/sightlinehq/optishop-backend/pkg/migrate"
	"github.com/sightlinehq/optishop-backend/pkg/redis"
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

	workshopMetrics := metrics.NewWorkshopMetrics(prometheus.DefaultRegisterer)
	workshopRepo := workshop.NewRepository(dbClient.DB())
	runner := workshop.NewRunner(logg, workshopMetrics)

	coordinator, err := workshop.NewCoordinator(workshopRepo, runner, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create job work coordinator", err)
		os.Exit(1)
	}

	statusTracker, err := workshop.NewStatusTracker(workshopRepo, coordinator, runner, workshopMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create status tracker", err)
		os.Exit(1)
	}

	vendorService, err := vendors.NewService(vendors.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, redisClient, statusTracker, coordinator, vendorService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
