package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/jobboard/job-board/internal/api/http"
	"github.com/jobboard/job-board/internal/api/http/handlers"
	"github.com/jobboard/job-board/internal/auth"
	"github.com/jobboard/job-board/internal/cache"
	"github.com/jobboard/job-board/internal/config"
	"github.com/jobboard/job-board/internal/events"
	"github.com/jobboard/job-board/internal/observability"
	"github.com/jobboard/job-board/internal/persistence"
	"github.com/jobboard/job-board/internal/repository"
	"github.com/jobboard/job-board/internal/repository/memory"
	"github.com/jobboard/job-board/internal/service"
	"github.com/jobboard/job-board/internal/storage"
	"github.com/jobboard/job-board/internal/validation"
	"github.com/jobboard/job-board/internal/worker"
)

type repositories struct {
	users        repository.UserRepository
	jobs         repository.JobRepository
	applications repository.ApplicationRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var repos repositories
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		repos = repositories{
			users:        repository.NewUserRepository(pool),
			jobs:         repository.NewJobRepository(pool),
			applications: repository.NewApplicationRepository(pool),
		}
	} else {
		store := memory.NewStore()
		repos = repositories{users: store.Users(), jobs: store.Jobs(), applications: store.Applications()}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init storage", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	validator := validation.New()
	dispatcher := events.NewInMemoryDispatcher()
	viewCache := cache.NewRedisViewCache(redis.Client, cfg.Cache.TTL())
	keys := cache.Keys{Prefix: cfg.Cache.KeyPrefix}

	authService := service.NewAuthService(cfg.Auth, repos.users, validator, logger)
	applicationService := service.NewApplicationService(service.ApplicationDependencies{
		AuthService:     authService,
		JobRepo:         repos.jobs,
		ApplicationRepo: repos.applications,
		Validator:       validator,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})
	jobService := service.NewJobService(service.JobDependencies{
		AuthService:     authService,
		JobRepo:         repos.jobs,
		ApplicationRepo: repos.applications,
		Validator:       validator,
		Dispatcher:      dispatcher,
		Cache:           viewCache,
		Keys:            keys,
		Logger:          logger,
	})
	dashboardService := service.NewDashboardService(repos.jobs, repos.applications, viewCache, keys, logger)
	uploadService := service.NewUploadService(blobs, cfg.Upload.MaxFileSizeBytes, metrics, logger)
	mailer := service.NewSMTPMailer(cfg.Notification)
	if mailer != nil {
		mailQueue := worker.NewMailQueue(mailer, 100, logger)
		defer mailQueue.Stop()
		mailer = mailQueue
	}
	notificationService := service.NewNotificationService(repos.users, mailer, logger)

	worker.Start(dispatcher, viewCache, keys, notificationService, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Upload.MaxFileSizeBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Jobs:           handlers.NewJobsHandler(jobService),
		Applications:   handlers.NewApplicationsHandler(applicationService),
		Uploads:        handlers.NewUploadsHandler(uploadService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: authMiddleware,
		UploadsDir:     localUploadsDir(cfg.Storage),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

func localUploadsDir(cfg config.StorageConfig) string {
	if cfg.Driver == "s3" {
		return ""
	}
	return cfg.BasePath
}
