package main

import (
	"fmt"
	"log"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/fieldops/fieldops-api/api/swagger"
	"github.com/fieldops/fieldops-api/internal/handler"
	"github.com/fieldops/fieldops-api/internal/repository"
	"github.com/fieldops/fieldops-api/internal/service"
	"github.com/fieldops/fieldops-api/pkg/cache"
	"github.com/fieldops/fieldops-api/pkg/config"
	"github.com/fieldops/fieldops-api/pkg/database"
	"github.com/fieldops/fieldops-api/pkg/logger"
	"github.com/fieldops/fieldops-api/pkg/storage"
)

// @title FieldOps API
// @version 1.0.0
// @description Field-service coordination: clients, cases, interventions, devices, quotes and review queues
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(db, cfg.Database.MigrationsDir, cfg.Database.Name, logr); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	// Redis is optional: without it the dashboard summary is rebuilt on
	// every request.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
		redisClient = nil
	}

	clientRepo := repository.NewClientRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	interventionRepo := repository.NewInterventionRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	metrics := service.NewMetricsService()
	dashboard := service.NewDashboardService(caseRepo, interventionRepo, reviewRepo, deviceRepo, redisClient, cfg.Dashboard.CacheTTL, logr)
	observer := &service.WorkflowObserver{Metrics: metrics, Dashboard: dashboard}

	clientSvc := service.NewClientService(clientRepo, logr)
	caseSvc := service.NewCaseService(caseRepo, logr, service.WithCaseObserver(observer))
	interventionSvc := service.NewInterventionService(interventionRepo, caseRepo, deviceRepo, quoteRepo, logr,
		service.WithInterventionObserver(observer))
	deviceSvc := service.NewDeviceService(deviceRepo, logr, service.WithDeviceObserver(observer))
	quoteSvc := service.NewQuoteService(quoteRepo, caseRepo, logr, service.WithQuoteObserver(observer))
	reviewSvc := service.NewReviewService(reviewRepo, logr, service.WithReviewObserver(observer))

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare exports dir", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(interventionRepo, exportStorage, signer, metrics, logr)

	r := handler.NewRouter(cfg, logr, handler.Handlers{
		Health:        handler.NewHealthHandler(db, redisClient),
		Clients:       handler.NewClientHandler(clientSvc),
		Cases:         handler.NewCaseHandler(caseSvc, interventionSvc),
		Interventions: handler.NewInterventionHandler(interventionSvc),
		Devices:       handler.NewDeviceHandler(deviceSvc),
		Quotes:        handler.NewQuoteHandler(quoteSvc),
		Reviews:       handler.NewReviewHandler(reviewSvc),
		Dashboard:     handler.NewDashboardHandler(dashboard),
		Exports:       handler.NewExportHandler(exportSvc),
		Metrics:       metrics,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
