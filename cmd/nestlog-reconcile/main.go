package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nestlog-reconcile/internal/blob"
	"nestlog-reconcile/internal/config"
	"nestlog-reconcile/internal/consumer"
	"nestlog-reconcile/internal/dispatch"
	"nestlog-reconcile/internal/extraction"
	"nestlog-reconcile/internal/history"
	httpapi "nestlog-reconcile/internal/http"
	"nestlog-reconcile/internal/queue"
	"nestlog-reconcile/internal/repository"
	"nestlog-reconcile/internal/review"
	"nestlog-reconcile/internal/service"
	"nestlog-reconcile/internal/store"
	"nestlog-reconcile/internal/stream"
	"nestlog-reconcile/pkg/database"
	"nestlog-reconcile/pkg/logger"
	pkgmqtt "nestlog-reconcile/pkg/mqtt"
	pkgredis "nestlog-reconcile/pkg/redis"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "nestlog-reconcile")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Domain stores: Postgres when available, in-memory fallback so the
	// pipeline stays usable for local dev without a database.
	var db *sql.DB
	var sleepStore repository.SleepStore = repository.NewMemorySleepStore()
	var feedStore repository.FeedStore = repository.NewMemoryFeedStore()
	var diaperStore repository.DiaperStore = repository.NewMemoryDiaperStore()
	var activityStore repository.ActivityStore = repository.NewMemoryActivityStore()
	var pendingRepo repository.PendingReportsRepo = repository.NewMemoryPendingReportsRepo()

	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			sleepStore = repository.NewPostgresSleepStore(db)
			feedStore = repository.NewPostgresFeedStore(db)
			diaperStore = repository.NewPostgresDiaperStore(db)
			activityStore = repository.NewPostgresActivityStore(db)
			pendingRepo = repository.NewPostgresPendingReportsRepo(db)
			zapLogger.Info("DB enabled for nestlog-reconcile")
		} else {
			zapLogger.Warn("DB enabled but connection failed, falling back to in-memory stores", zap.Error(err))
		}
	}

	// Redis backs the history cache and the committed-events stream. Without
	// it the cache is process-local and commits are not announced.
	var redisClient *pkgredis.Client
	var kv store.KV = store.NewMemoryKV()
	var publisher *stream.Publisher
	if cfg.RedisEnabled {
		redisClient = pkgredis.NewRedisClient(&cfg.Redis)
		if err := pkgredis.Ping(context.Background(), redisClient); err != nil {
			zapLogger.Warn("Redis ping failed, cache and commit announcements degraded", zap.Error(err))
		}
		kv = store.NewRedisKV(redisClient)
		publisher = stream.NewPublisher(redisClient, zapLogger)
	}

	// Queued report sources must survive restarts.
	blobStore, err := blob.NewFSStore(cfg.Blob.Dir)
	if err != nil {
		zapLogger.Fatal("Failed to initialize blob store", zap.String("dir", cfg.Blob.Dir), zap.Error(err))
	}

	extractionClient := extraction.NewClient(
		cfg.Extraction.BaseURL,
		cfg.Extraction.APIKey,
		time.Duration(cfg.Extraction.TimeoutSeconds)*time.Second,
		zapLogger,
	)

	historyProvider := history.NewProvider(
		sleepStore, feedStore, diaperStore, activityStore,
		kv,
		time.Duration(cfg.History.CacheTTLSeconds)*time.Second,
		zapLogger,
	)
	dispatcher := dispatch.NewDispatcher(sleepStore, feedStore, diaperStore, activityStore, zapLogger)
	offlineQueue := queue.NewOfflineQueue(blobStore, pendingRepo, zapLogger)
	sessions := review.NewSessionStore()

	reconcileService := service.NewReconcileService(
		extractionClient,
		historyProvider,
		dispatcher,
		offlineQueue,
		sessions,
		publisher,
		cfg.History.WindowDays,
		zapLogger,
	)

	router := httpapi.NewRouter(zapLogger)
	router.RegisterReconcileRoutes(
		httpapi.NewReportHandler(reconcileService, zapLogger),
		httpapi.NewSessionHandler(reconcileService, zapLogger),
		httpapi.NewHistoryExportHandler(reconcileService, zapLogger),
	)
	doctor := httpapi.NewDoctorHandler(db, redisClient, zapLogger)
	doctor.EnablePprof(os.Getenv("PPROF_ENABLED") == "true")
	router.RegisterDoctorRoutes(doctor)

	srv := service.NewServer(cfg.HTTP.Addr, router, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional broker-fed ingest path.
	var mqttClient *pkgmqtt.Client
	var mqttConsumer *consumer.MQTTConsumer
	if cfg.MQTT.Enabled {
		if c, err := pkgmqtt.NewClient(&cfg.MQTT.Conn); err == nil {
			mqttClient = c
			ingestTimeout := time.Duration(cfg.Extraction.TimeoutSeconds+60) * time.Second
			mqttConsumer = consumer.NewMQTTConsumer(
				cfg.MQTT.Topic,
				cfg.MQTT.Conn.QoS,
				ingestTimeout,
				mqttClient,
				reconcileService,
				zapLogger,
			)
			go func() {
				if err := mqttConsumer.Start(ctx); err != nil {
					zapLogger.Error("MQTT consumer stopped", zap.Error(err))
				}
			}()
		} else {
			zapLogger.Warn("MQTT enabled but broker connection failed, continuing without it", zap.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttConsumer != nil {
		_ = mqttConsumer.Stop(shutdownCtx)
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = pkgredis.Close(redisClient)
	}
	_ = database.Close(db)
}
