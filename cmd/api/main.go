package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medrecords-api/internal/config"
	"github.com/jwalitptl/medrecords-api/internal/handler/health"
	intakeHandler "github.com/jwalitptl/medrecords-api/internal/handler/intake"
	profileHandler "github.com/jwalitptl/medrecords-api/internal/handler/profile"
	promHandler "github.com/jwalitptl/medrecords-api/internal/handler/prometheus"
	recordHandler "github.com/jwalitptl/medrecords-api/internal/handler/record"
	transcribeHandler "github.com/jwalitptl/medrecords-api/internal/handler/transcribe"
	"github.com/jwalitptl/medrecords-api/internal/middleware"
	"github.com/jwalitptl/medrecords-api/internal/repository/postgres"
	"github.com/jwalitptl/medrecords-api/internal/router"
	auditService "github.com/jwalitptl/medrecords-api/internal/service/audit"
	intakeService "github.com/jwalitptl/medrecords-api/internal/service/intake"
	profileService "github.com/jwalitptl/medrecords-api/internal/service/profile"
	recordService "github.com/jwalitptl/medrecords-api/internal/service/record"
	transcriptionService "github.com/jwalitptl/medrecords-api/internal/service/transcription"
	"github.com/jwalitptl/medrecords-api/pkg/auth"
	"github.com/jwalitptl/medrecords-api/pkg/logger"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/speech"
	"github.com/jwalitptl/medrecords-api/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	})
	appLogger.SetGlobal()

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics("records", registry)

	// Initialize repositories
	baseRepo := postgres.NewBaseRepository(db)
	recordRepo := postgres.NewMedicalRecordRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)
	formRepo := postgres.NewPatientFormRepository(baseRepo)
	auditRepo := postgres.NewAuditRepository(baseRepo)

	images, err := storage.NewCloudinaryStore(storage.CloudinaryConfig{
		CloudName: cfg.Cloudinary.CloudName,
		APIKey:    cfg.Cloudinary.APIKey,
		APISecret: cfg.Cloudinary.APISecret,
		Folder:    cfg.Cloudinary.Folder,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure cloudinary")
	}

	// Initialize services
	auditor := auditService.NewService(auditRepo)
	recordSvc := recordService.NewService(recordRepo, auditor, m)
	profileSvc := profileService.NewService(userRepo, recordRepo, auditor)
	intakeSvc := intakeService.NewService(formRepo, images, auditor, m)
	stubSvc := transcriptionService.NewService(&speech.Stub{Delay: cfg.Transcription.StubDelay}, "stub", m)
	transcribeSvc := stubSvc
	if cfg.Transcription.Provider != "stub" {
		transcribeSvc = transcriptionService.NewService(speech.NewElevenLabs(speech.ElevenLabsConfig{
			APIKey:  cfg.ElevenLabs.APIKey,
			BaseURL: cfg.ElevenLabs.BaseURL,
			ModelID: cfg.ElevenLabs.ModelID,
			Timeout: cfg.ElevenLabs.Timeout,
		}), "elevenlabs", m)
	}

	var tokens middleware.TokenParser
	if cfg.JWT.Secret != "" {
		tokens = auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenExpiry)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Security.AllowedOrigins
	cors.AllowMethods = cfg.Security.AllowedMethods
	cors.AllowHeaders = cfg.Security.AllowedHeaders

	routerConfig := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		CORSConfig:     cors,
		MetricsPrefix:  "records_http",
		Registerer:     registry,
		Tokens:         tokens,
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	// Setup router
	r := router.NewRouter(
		routerConfig,
		health.NewHandler(map[string]health.Pinger{"database": db}),
		promHandler.New(registry),
		recordHandler.NewHandler(recordSvc),
		profileHandler.NewHandler(profileSvc),
		intakeHandler.NewHandler(intakeSvc),
		transcribeHandler.NewHandler(transcribeSvc, stubSvc),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("transcription", cfg.Transcription.Provider).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
