package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/medrecords-api/internal/config"
	"github.com/jwalitptl/medrecords-api/internal/email"
	"github.com/jwalitptl/medrecords-api/internal/handler/health"
	promHandler "github.com/jwalitptl/medrecords-api/internal/handler/prometheus"
	"github.com/jwalitptl/medrecords-api/internal/middleware"
	"github.com/jwalitptl/medrecords-api/internal/repository/postgres"
	"github.com/jwalitptl/medrecords-api/internal/service/notification"
	internalWorker "github.com/jwalitptl/medrecords-api/internal/worker"
	"github.com/jwalitptl/medrecords-api/pkg/logger"
	"github.com/jwalitptl/medrecords-api/pkg/messaging"
	"github.com/jwalitptl/medrecords-api/pkg/messaging/redis"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/worker"
)

const healthAddr = ":8081"

func setupHealthCheck(appLogger *logger.Logger, checks map[string]health.Pinger, registry *prometheus.Registry) *http.Server {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	promHandler.New(registry).RegisterRoutes(&engine.RouterGroup)
	health.NewHandler(checks).RegisterRoutes(&engine.RouterGroup)

	srv := &http.Server{Addr: healthAddr, Handler: engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	appLogger := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	})
	appLogger.SetGlobal()
	gin.SetMode(gin.ReleaseMode)

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	// Without Redis the worker publishes to and consumes from itself.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &appLogger.ZL)
		if err != nil {
			appLogger.Fatal(err, "Failed to create Redis broker")
		}
	} else {
		appLogger.Warn("No Redis URL configured, using in-memory broker")
		broker = messaging.NewMemoryBroker()
	}
	defer broker.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("records_worker", registry)

	// Initialize repositories
	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)
	auditRepo := postgres.NewAuditRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
			Channel:       cfg.Redis.Channel,
		},
		appLogger,
		m,
	)

	notifier := notification.NewService(userRepo, email.NewService(cfg.SMTP), appLogger, m)
	dispatcher := messaging.NewDispatcher(broker, func(msg messaging.Message, err error) {
		appLogger.Error(err, "Failed to handle event", "event_id", msg.ID, "event_type", msg.Type)
	})
	notifier.Register(dispatcher)

	retention := internalWorker.NewRetentionWorker(auditRepo, outboxRepo, internalWorker.RetentionConfig{
		AuditLogs:     cfg.Retention.AuditLogs,
		OutboxEvents:  cfg.Retention.OutboxEvents,
		SweepInterval: cfg.Retention.SweepInterval,
	}, appLogger)

	// Setup health check endpoints
	healthSrv := setupHealthCheck(appLogger, map[string]health.Pinger{"database": db}, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := dispatcher.Run(ctx, cfg.Redis.Channel); err != nil {
			appLogger.Error(err, "Event dispatcher stopped")
		}
	}()
	if cfg.Retention.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			retention.Start(ctx)
		}()
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	appLogger.Info("Shutting down...")
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Health check server forced to shutdown")
	}
}
