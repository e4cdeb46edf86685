package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/tabextract/internal/api"
	"github.com/timmy/tabextract/internal/api/handler"
	"github.com/timmy/tabextract/internal/api/middleware"
	"github.com/timmy/tabextract/internal/config"
	"github.com/timmy/tabextract/internal/logger"
	"github.com/timmy/tabextract/internal/repository"
	"github.com/timmy/tabextract/internal/service"
	"github.com/timmy/tabextract/internal/session"
	"github.com/timmy/tabextract/internal/storage"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH selects the config file in deployed environments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := context.Background()

	// Audit store is optional
	var (
		jobStore service.JobStore
		auditor  handler.JobLister
	)
	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		repo := repository.NewJobRepository(db)
		jobStore, auditor = repo, repo
	}

	// Export archive is optional
	var (
		archive       *storage.Archive
		archiveReader handler.ArchiveReader
	)
	if cfg.Storage.Enabled {
		store, err := storage.NewStore(&storage.S3Config{
			Type:      storage.StorageType(cfg.Storage.Type),
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := store.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		archive = storage.NewArchive(store, cfg.Storage.Prefix)
		archiveReader = archive
	}

	surveys := service.NewSurveyResolver(cfg.Extraction.SurveyURL, cfg.Extraction.Timeout)
	client, err := service.NewExtractionClient(&service.ExtractionConfig{
		BaseURL: cfg.Extraction.BaseURL,
		APIKey:  cfg.Extraction.APIKey,
		Timeout: cfg.Extraction.Timeout,
	}, surveys)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize extraction client")
	}

	sess := session.New()
	jobService := service.NewJobService(
		service.NewValidator(cfg.Ingest.MaxFiles, cfg.Ingest.MaxFileSize),
		service.NewScheduler(client, &service.SchedulerConfig{
			BatchSize:      cfg.Ingest.BatchSize,
			SettleInterval: cfg.Ingest.SettleInterval,
		}),
		sess,
		jobStore,
		archive,
		appLogger,
	)

	router := api.SetupRouter(api.Dependencies{
		Jobs:        jobService,
		Session:     sess,
		Surveys:     surveys,
		Audit:       auditor,
		Archive:     archiveReader,
		MaxFileSize: cfg.Ingest.MaxFileSize,
		MaxFiles:    cfg.Ingest.MaxFiles,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		Logger: appLogger,
	}, cfg.Server.Mode)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":       cfg.Server.Port,
			"mode":       cfg.Server.Mode,
			"extraction": cfg.Extraction.BaseURL,
			"batch_size": cfg.Ingest.BatchSize,
			"database":   cfg.Database.Enabled,
			"archive":    cfg.Storage.Enabled,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Extraction requests can take minutes; give an in-flight job a chance to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Extraction.Timeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
