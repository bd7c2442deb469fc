package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dealflow/internal/api"
	"dealflow/internal/api/handlers"
	"dealflow/internal/app"
	"dealflow/internal/matching"
	"dealflow/internal/repository"
	"dealflow/internal/scoring"
	"dealflow/internal/service"
	"dealflow/pkg/auth"
	"dealflow/pkg/config"
	"dealflow/pkg/logger"
	"dealflow/pkg/postgres"

	"go.uber.org/zap"
)

// @title Dealflow API
// @version 1.0
// @description Deal ingest, scoring and buyer matching

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting dealflow service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	dealRepo := repository.NewDealRepository(db, appLogger)
	buyerRepo := repository.NewBuyerRepository(db, appLogger)
	sellerRepo := repository.NewSellerRepository(db, appLogger)
	matchRepo := repository.NewMatchRepository(db, appLogger)
	notificationRepo := repository.NewNotificationRepository(db, appLogger)

	auditSink, closeAudit := app.AuditSink(ctx, cfg.Audit, db, appLogger)
	defer closeAudit()

	// Scoring and matching
	scorer, scoringCloser := scoring.New(ctx, &cfg.Scoring, appLogger)
	defer scoringCloser.Close()

	selector, err := matching.NewSelector(cfg.Matching.Prefilter)
	if err != nil {
		appLogger.Fatal("Invalid match prefilter", zap.Error(err))
	}

	publisher := app.Publisher(cfg.NATS, appLogger)
	defer publisher.Close()

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, app.Transport(cfg.SMTP, appLogger), appLogger)
	ingestService := service.NewIngestService(
		dealRepo,
		buyerRepo,
		matchRepo,
		scorer,
		matching.NewEngine(),
		selector,
		notificationService,
		auditSink,
		publisher,
		service.IngestSettings{
			Threshold:     cfg.Matching.Threshold,
			AdminEmail:    cfg.Admin.Email,
			DispatchLimit: cfg.Dispatch.OnIngestLimit,
		},
		appLogger,
	)
	registryService := service.NewRegistryService(buyerRepo, sellerRepo, appLogger)
	statsService := service.NewStatsService(buyerRepo, dealRepo, matchRepo, notificationRepo)

	jwtManager := auth.NewJWTManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)

	// Setup router
	router := api.SetupRouter(api.Handlers{
		Deal:     handlers.NewDealHandler(ingestService, appLogger),
		Registry: handlers.NewRegistryHandler(registryService, appLogger),
		Admin:    handlers.NewAdminHandler(notificationService, statsService, appLogger),
		System:   handlers.NewSystemHandler(appLogger),
	}, jwtManager, api.Options{
		AdminEmail:      cfg.Admin.Email,
		FrontendOrigins: cfg.Server.FrontendOrigins,
		RequestLogging:  cfg.Logger.Level == "debug",
	}, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting",
			zap.String("address", addr),
			zap.String("scoring_provider", cfg.Scoring.Provider),
			zap.String("prefilter", selector.Name()),
			zap.Float64("match_threshold", cfg.Matching.Threshold),
		)
		if err := router.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := router.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
