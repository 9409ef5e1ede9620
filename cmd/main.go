package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/cache"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/config"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/connectivity"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/dispatch"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/facility"
	v1 "github.com/jaidevxr/monsoon-guardian-sub001/internal/handler/http/v1"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/notify"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/observability"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/repository"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/service"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/syncer"
	"github.com/jaidevxr/monsoon-guardian-sub001/internal/weather"
	"github.com/jaidevxr/monsoon-guardian-sub001/pkg/logger"
	"github.com/jaidevxr/monsoon-guardian-sub001/pkg/postgres"
	redisclient "github.com/jaidevxr/monsoon-guardian-sub001/pkg/redis"

	_ "github.com/jaidevxr/monsoon-guardian-sub001/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Monsoon Guardian API
// @version 1.0
// @description Offline-first disaster alert backend: queued alert delivery, facility lookup and weather snapshots.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	snapshots := cache.NewRedisStore(redisClient, clock)

	alertRepo := repository.NewAlertRepository(dbpool)

	dispatcher := dispatch.NewWebhookDispatcher(cfg, log, metrics)

	var notifier notify.Notifier
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" && cfg.PushSubscription != "" {
		notifier, err = notify.NewWebPushNotifier(cfg.PushSubscription, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubscriber, log)
		if err != nil {
			log.Fatalf("Failed to configure web push notifier: %v", err)
		}
		log.Info("Drain summaries will be delivered via web push")
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	var observer connectivity.Observer = connectivity.NewHTTPProber(cfg.ProbeURL, cfg.ProbeInterval, cfg.ProbeTimeout, log)
	if starter, ok := observer.(connectivity.Starter); ok {
		starter.Start(ctx)
	}

	coordinator := syncer.NewCoordinator(alertRepo, dispatcher, notifier, observer, log, clock, metrics)
	coordinator.Run(ctx)

	alertService := service.NewAlertService(alertRepo, log, clock, metrics)
	facilityProvider := facility.NewClient(cfg.OverpassURL, cfg.OverpassTimeout, log, metrics)
	facilityService := service.NewFacilityService(facilityProvider, snapshots, log, metrics)
	weatherProvider := weather.NewClient(cfg.WeatherURL, cfg.WeatherTimeout, log, metrics)
	weatherService := service.NewWeatherService(weatherProvider, snapshots, log, clock, metrics, cfg.WeatherCacheTTL)

	handler := v1.NewHandler(alertService, facilityService, weatherService, coordinator, observer, log, cfg)

	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
