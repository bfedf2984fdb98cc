package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hydromet-data/internal/config"
	"hydromet-data/internal/database"
	httpapi "hydromet-data/internal/http"
	logpkg "hydromet-data/internal/logger"
	"hydromet-data/internal/mqtt"
	"hydromet-data/internal/repository"
	"hydromet-data/internal/rest"
	"hydromet-data/internal/service"
	"hydromet-data/internal/store"
	"hydromet-data/internal/transformer"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	log, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "hydromet-data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting hydromet-data service",
		zap.String("sample_source", cfg.SampleSource),
		zap.Duration("staleness_window", cfg.StalenessWindow),
	)

	// 数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// 迁移
	migrator := database.NewMigrationManager(cfg.Database.GetMigrateURL(), "file://migrations", log)
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis（实时样本库）
	redisClient := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := store.Ping(ctx, redisClient); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	kv := store.NewRedisKVStore(redisClient)
	samplesRepo := repository.NewRealtimeSampleRepo(kv, cfg.SampleTTL)

	// Repository
	devicesRepo := repository.NewPostgresDevicesRepo(db, log)
	logsRepo := repository.NewPostgresLogsRepo(db, log)
	tokensRepo := repository.NewPostgresTokensRepo(db, log)

	// 归一化：来源按配置显式选择
	trans, err := transformer.New(
		transformer.Source(cfg.SampleSource),
		transformer.DefaultDefaults(cfg.DefaultThreshold),
	)
	if err != nil {
		log.Fatal("Invalid sample source", zap.Error(err))
	}

	var source service.SampleSource
	switch transformer.Source(cfg.SampleSource) {
	case transformer.SourceCloud:
		cloudClient := rest.NewCloudClient(cfg.Cloud.BaseURL, cfg.Cloud.APIKey, log)
		source = service.NewCloudSampleSource(cloudClient)
	default:
		source = service.NewStationSampleSource(devicesRepo, samplesRepo, log)
	}

	// Service
	tokenService := service.NewTokenService(tokensRepo, cfg.TokenTTL, log)
	deviceService := service.NewDeviceService(
		devicesRepo, logsRepo, tokenService, source, trans, samplesRepo,
		cfg.StalenessWindow, log,
	)
	logService := service.NewLogService(logsRepo, log)
	dashboardService := service.NewDashboardService(deviceService, logService, log)
	ingestService := service.NewIngestService(
		devicesRepo, logsRepo, tokenService, samplesRepo,
		cfg.StalenessWindow, log,
	)
	geoService := service.NewGeolocateService(cfg.GeolocateURL, log)

	// MQTT 直报（可选）
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mqttClient.Disconnect()

		broker := mqtt.NewSampleBroker(ingestService, log)
		if err := mqttClient.Subscribe(cfg.MQTT.Topic, cfg.MQTT.QoS, broker.HandleMessage); err != nil {
			log.Fatal("Failed to subscribe to sample topic", zap.Error(err))
		}
		log.Info("MQTT sample ingest enabled", zap.String("topic", cfg.MQTT.Topic))
	}

	// HTTP
	router := httpapi.NewRouter(log)
	router.RegisterDeviceRoutes(httpapi.NewDeviceHandler(deviceService, tokenService, log))
	router.RegisterDashboardRoutes(httpapi.NewDashboardHandler(dashboardService, log))
	router.RegisterLogRoutes(httpapi.NewLogHandler(logService, log))
	router.RegisterIngestRoutes(httpapi.NewIngestHandler(ingestService, log))
	router.RegisterGeolocateRoutes(httpapi.NewGeolocateHandler(geoService, log))
	router.RegisterHealthRoutes()

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// 等待信号或错误
	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		log.Error("HTTP server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", zap.Error(err))
	}

	log.Info("Service stopped")
}
