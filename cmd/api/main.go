package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ROHAN-089/namma-city/internal/api/http"
	"github.com/ROHAN-089/namma-city/internal/api/http/handlers"
	"github.com/ROHAN-089/namma-city/internal/config"
	"github.com/ROHAN-089/namma-city/internal/events"
	"github.com/ROHAN-089/namma-city/internal/observability"
	"github.com/ROHAN-089/namma-city/internal/persistence"
	"github.com/ROHAN-089/namma-city/internal/repository"
	"github.com/ROHAN-089/namma-city/internal/service"
	"github.com/ROHAN-089/namma-city/internal/sla"
	"github.com/ROHAN-089/namma-city/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), "", logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	issueRepo := repository.NewIssueRepository(pool)
	escalationRepo := repository.NewEscalationEventRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	policy := sla.PolicyFromConfig(cfg.SLA)
	locker := persistence.NewIssueLocker(redis, cfg.Sweep.LockTTL(), logger)

	slaService := service.NewSLAService(service.SLADependencies{
		IssueRepo:      issueRepo,
		EscalationRepo: escalationRepo,
		DepartmentRepo: departmentRepo,
		Dispatcher:     dispatcher,
		Policy:         policy,
		Logger:         logger,
	})
	sweepService := service.NewSweepService(service.SweepDependencies{
		IssueRepo:      issueRepo,
		EscalationRepo: escalationRepo,
		Locker:         locker,
		Dispatcher:     dispatcher,
		Policy:         policy,
		Config:         cfg.Sweep,
		Logger:         logger,
		Metrics:        metrics,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	if cfg.Sweep.WorkerEnabled {
		sweepWorker := worker.NewSweepWorker(sweepService, cfg.Sweep.WorkerInterval(), logger)
		go sweepWorker.Run(ctx)
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	slaHandler := handlers.NewSLAHandler(slaService, sweepService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: healthHandler,
		SLA:    slaHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
