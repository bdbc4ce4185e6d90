package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/application/dispatcher"
	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/application/service"
	appworkflow "github.com/openfleet/fleetflow/internal/application/workflow"
	"github.com/openfleet/fleetflow/internal/config"
	"github.com/openfleet/fleetflow/internal/infrastructure/document"
	"github.com/openfleet/fleetflow/internal/infrastructure/external/lark"
	"github.com/openfleet/fleetflow/internal/infrastructure/external/openai"
	"github.com/openfleet/fleetflow/internal/infrastructure/persistence/repository"
	"github.com/openfleet/fleetflow/internal/infrastructure/persistence/sqlite"
	"github.com/openfleet/fleetflow/internal/infrastructure/storage"
	httpapi "github.com/openfleet/fleetflow/internal/interfaces/http"
	"github.com/openfleet/fleetflow/pkg/database"
	"github.com/openfleet/fleetflow/pkg/utils"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting FleetFlow request workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.BaseDir, 0755); err != nil {
		logger.Fatal("Failed to create storage directory", zap.Error(err))
	}

	db := sqlite.NewDB(sqlDB, logger)

	// Repositories
	requestRepo := repository.NewRequestRepository(db, logger)
	actionRepo := repository.NewActionRepository(db, logger)
	routeRepo := repository.NewRouteRepository(db, logger)
	quoteRepo := repository.NewQuoteRepository(db, logger)
	documentRepo := repository.NewDocumentRepository(db, logger)
	notificationRepo := repository.NewNotificationRepository(db, logger)
	vehicleRepo := repository.NewVehicleRepository(db, logger)

	sugar := utils.NewSugaredLogger(logger)

	// Event dispatcher
	disp := dispatcher.NewDispatcher(dispatcher.WithLogger(sugar))
	defer disp.Close()

	// External adapters
	var sender port.MessageSender
	if cfg.Lark.Enabled {
		larkClient := lark.NewClient(lark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
		sender = lark.NewMessenger(larkClient, logger)
	}

	var advisor port.QuoteAdvisor
	if cfg.OpenAI.APIKey != "" {
		advisor = openai.NewAdvisor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger)
	}

	extractor := document.NewTextExtractor(cfg.OpenAI.MaxDocPages, logger)
	fileStorage := storage.NewLocalFileStorage(cfg.Storage.BaseDir, logger)

	// Workflow engine and projections
	engine := appworkflow.NewEngine(requestRepo, actionRepo, routeRepo, quoteRepo, db,
		appworkflow.WithDispatcher(disp))
	projector := appworkflow.NewStatusProjector(requestRepo, actionRepo, routeRepo)

	// Application services
	requestService := service.NewRequestService(requestRepo, actionRepo, routeRepo, vehicleRepo, disp, sugar)
	documentService := service.NewDocumentService(requestRepo, documentRepo, quoteRepo, fileStorage, extractor, advisor, disp, sugar)
	reportService := service.NewReportService(requestRepo, quoteRepo, sugar)

	notificationService := service.NewNotificationService(requestRepo, routeRepo, notificationRepo, sender, sugar)
	notificationService.Register(disp)

	// HTTP server
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Auth: httpapi.AuthConfig{
			JWTSecret: cfg.Auth.JWTSecret,
			TokenTTL:  cfg.Auth.TokenTTL,
		},
	}, requestService, documentService, notificationService, reportService, engine, projector, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
