package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/planner/api/handler"
	"github.com/fastygo/planner/internal/config"
	"github.com/fastygo/planner/internal/infrastructure/journal"
	"github.com/fastygo/planner/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/planner/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/planner/internal/infrastructure/redis"
	"github.com/fastygo/planner/internal/infrastructure/telegram"
	"github.com/fastygo/planner/internal/middleware"
	"github.com/fastygo/planner/internal/router"
	"github.com/fastygo/planner/internal/services"
	"github.com/fastygo/planner/internal/services/lifecycle"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/pkg/logger"
	"github.com/fastygo/planner/repository/postgres"
	redisRepo "github.com/fastygo/planner/repository/redis"
	authUC "github.com/fastygo/planner/usecase/auth"
	destinationUC "github.com/fastygo/planner/usecase/destination"
	profileUC "github.com/fastygo/planner/usecase/profile"
	taskUC "github.com/fastygo/planner/usecase/task"
	termsUC "github.com/fastygo/planner/usecase/terms"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.WatchSignals(context.Background())
	defer stop()

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, cfg.AppName, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, zapLogger)
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis, cfg.AppName, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		zapLogger.Fatal("failed to open delivery journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	reminderRepo := postgres.NewReminderRepository(pool)
	destinationRepo := postgres.NewDestinationRepository(pool)
	termsRepo := postgres.NewTermsRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)

	notifier := telegram.New(cfg.Telegram, zapLogger)
	if !notifier.Configured() {
		zapLogger.Warn("TELEGRAM_BOT_TOKEN is not set, reminders will not be delivered")
	}

	dispatcher := services.NewReminderDispatcher(services.DispatcherDeps{
		Reminders:    reminderRepo,
		Tasks:        taskRepo,
		Destinations: destinationRepo,
		Notifier:     notifier,
		Journal:      journalStore,
		Lock:         redisRepo.NewTickLock(redisClient, cfg.Reminders.LockKey, cfg.Reminders.LockTTL),
		Monitor:      mon,
		Logger:       zapLogger.Named("reminders"),
	}, services.DispatcherConfig{
		Interval:         cfg.Reminders.Interval,
		TickTimeout:      cfg.Reminders.TickTimeout,
		MaxAttempts:      cfg.Reminders.MaxAttempts,
		JournalRetention: cfg.Journal.Retention,
	})
	dispatchHandle, err := dispatcher.Start()
	if err != nil {
		zapLogger.Fatal("failed to start reminder dispatcher", zap.Error(err))
	}
	manager.Register("reminder_dispatcher", func(ctx context.Context) error {
		dispatcher.Stop(ctx, dispatchHandle)
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, authUC.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.SessionTTL,
	}, zapLogger)
	profileUseCase := profileUC.New(userRepo, destinationRepo, zapLogger)
	taskUseCase := taskUC.New(taskRepo, reminderRepo, zapLogger)
	destinationUseCase := destinationUC.New(destinationRepo, zapLogger)
	termsUseCase := termsUC.New(termsRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:        apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:     apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:        apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Destination: apiHandler.NewDestinationHandler(destinationUseCase, ctxAdapter, zapLogger),
		Terms:       apiHandler.NewTermsHandler(termsUseCase, ctxAdapter, zapLogger),
		Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
