package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/config"
	"github.com/mamadbah2/newsletter/internal/repository/mongodb"
	"github.com/mamadbah2/newsletter/internal/repository/sheets"
	"github.com/mamadbah2/newsletter/internal/scheduler"
	"github.com/mamadbah2/newsletter/internal/server/handlers"
	"github.com/mamadbah2/newsletter/internal/server/router"
	authsvc "github.com/mamadbah2/newsletter/internal/service/auth"
	companysvc "github.com/mamadbah2/newsletter/internal/service/companies"
	ingestionsvc "github.com/mamadbah2/newsletter/internal/service/ingestion"
	reportsvc "github.com/mamadbah2/newsletter/internal/service/reports"
	"github.com/mamadbah2/newsletter/internal/uploads"
	"github.com/mamadbah2/newsletter/pkg/clients/pdf"
	"github.com/mamadbah2/newsletter/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	mongoClient, err := mongodb.NewClient(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		cancelConnect()
		baseLogger.Fatal("failed to init mongodb client", zap.Error(err))
	}
	if err := mongoClient.EnsureIndexes(connectCtx); err != nil {
		baseLogger.Warn("failed to ensure mongodb indexes", zap.Error(err))
	}
	cancelConnect()
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	db := mongoClient.Database()
	reportRepo := mongodb.NewReportRepository(db)
	companyRepo := mongodb.NewCompanyRepository(db)
	userRepo := mongodb.NewUserRepository(db)

	var sheetSource sheets.Source
	if cfg.Sheets.CredentialsPath != "" {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetSource = sheetsRepo
		baseLogger.Info("google sheets import enabled")
	} else {
		baseLogger.Warn("google sheets credentials missing, sheet import disabled")
	}

	var renderer pdf.Renderer
	if cfg.PDF.BaseURL != "" {
		renderer = pdf.NewClient(cfg.PDF)
		baseLogger.Info("pdf renderer enabled", zap.String("base_url", cfg.PDF.BaseURL))
	} else {
		baseLogger.Warn("pdf renderer url missing, pdf export disabled")
	}

	stager, err := uploads.NewStager(cfg.Uploads.Dir, baseLogger.Named("uploads"))
	if err != nil {
		baseLogger.Fatal("failed to init upload staging", zap.Error(err))
	}

	ingestionSvc := ingestionsvc.NewService(reportRepo, companyRepo, sheetSource, baseLogger.Named("svc.ingestion"))
	reportSvc := reportsvc.NewService(reportRepo, companyRepo, userRepo, renderer, baseLogger.Named("svc.reports"))
	companySvc := companysvc.NewService(companyRepo, baseLogger.Named("svc.companies"))
	authSvc := authsvc.NewService(userRepo, authsvc.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), baseLogger.Named("svc.auth"))

	engine := router.New(router.Options{
		Reports:        handlers.NewReportHandler(ingestionSvc, reportSvc, stager, cfg.Uploads.MaxBytes, baseLogger.Named("handlers.reports")),
		Companies:      handlers.NewCompanyHandler(companySvc, baseLogger.Named("handlers.companies")),
		Auth:           handlers.NewAuthHandler(authSvc, baseLogger.Named("handlers.auth")),
		Authenticator:  authSvc,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AuthRateLimit:  cfg.Auth.RateLimitPerMinute,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Uploads, stager, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
