package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trip_tracker/internal/cache"
	"trip_tracker/internal/config"
	"trip_tracker/internal/controllers"
	"trip_tracker/internal/ingest"
	"trip_tracker/internal/logger"
	"trip_tracker/internal/middleware"
	"trip_tracker/internal/routes"
	"trip_tracker/internal/services"
	"trip_tracker/internal/store"
)

func main() {
	settings := config.Load()

	// Initialize structured logging to file
	logOut := logger.Setup(settings.LogFile, settings.LogLevel)
	middleware.SetSecret(settings.JWTSecret)

	// Connect to the database
	db, err := config.InitDB(config.DSN(), logger.GormLogger())
	if err != nil {
		logrus.WithError(err).Fatal("Database initialization failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Fatal("Database handle unavailable")
	}
	defer sqlDB.Close()

	pingers := map[string]controllers.Pinger{"postgres": sqlDB.PingContext}

	rideStore := store.NewRideStore(db)
	checkpointStore := store.NewCheckpointStore(db)
	fareStore := store.NewFareConfigStore(db)

	var routeCache services.RouteCache
	if settings.RedisAddr != "" {
		rdb := cache.NewRedis(settings.RedisAddr)
		defer rdb.Close()
		routeCache = cache.NewRouteCache(rdb, settings.RouteCacheTTL)
		pingers["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logrus.WithField("addr", settings.RedisAddr).Info("Route cache enabled")
	}

	locks := services.NewRideLocks()
	inflight := services.NewInFlight()

	checkpointSvc := services.NewCheckpointService(checkpointStore, locks, services.CheckpointOptions{
		InterpolationPoints: settings.InterpolationPoints,
		SkewWarn:            settings.ClockSkewWarn,
	})
	rideSvc := services.NewRideService(rideStore, locks)
	routeSvc := services.NewRouteService(rideStore, checkpointStore, routeCache)
	fareEngine := services.NewFareEngine(fareStore, routeSvc, inflight, settings.FareTimezone)
	fareConfigSvc := services.NewFareConfigService(fareStore, inflight)
	querySvc := services.NewQueryService(checkpointStore, routeSvc, settings.ExportMaxRows)

	if settings.MQTTBroker != "" {
		sub := ingest.NewSubscriber(ingest.Options{
			Broker:   settings.MQTTBroker,
			ClientID: settings.MQTTClientID,
			Topic:    settings.MQTTTopic,
		}, checkpointSvc)
		if err := sub.Start(); err != nil {
			logrus.WithError(err).Fatal("MQTT ingest failed to start")
		}
		defer sub.Stop()
	}

	// Setup Gin router
	r := routes.SetupRouter(routes.Handlers{
		Checkpoints: controllers.NewCheckpointController(checkpointSvc, querySvc, fareEngine),
		Rides:       controllers.NewRideController(rideSvc),
		FareConfigs: controllers.NewFareConfigController(fareConfigSvc, fareEngine),
		Socket:      controllers.NewCheckpointSocket(checkpointSvc),
		Health:      controllers.Health(pingers),
	}, gin.Recovery(), logger.RequestLogger(logOut))

	// Wrap with CORS
	srv := &http.Server{
		Addr:              settings.HTTPAddr,
		Handler:           middleware.CORS(middleware.SplitOrigins(settings.CORSOrigins))(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", settings.HTTPAddr).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}
