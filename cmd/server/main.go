package main

import (
	"context"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/medipro/backend/api/handler"
	"github.com/medipro/backend/internal/config"
	"github.com/medipro/backend/internal/guard"
	"github.com/medipro/backend/internal/infrastructure/credstore"
	"github.com/medipro/backend/internal/infrastructure/mail"
	"github.com/medipro/backend/internal/infrastructure/monitor"
	"github.com/medipro/backend/internal/infrastructure/outbox"
	pgInfra "github.com/medipro/backend/internal/infrastructure/postgres"
	redisInfra "github.com/medipro/backend/internal/infrastructure/redis"
	"github.com/medipro/backend/internal/middleware"
	"github.com/medipro/backend/internal/router"
	"github.com/medipro/backend/internal/services"
	"github.com/medipro/backend/internal/services/lifecycle"
	"github.com/medipro/backend/pkg/httpcontext"
	"github.com/medipro/backend/pkg/logger"
	"github.com/medipro/backend/repository/postgres"
	redisRepo "github.com/medipro/backend/repository/redis"
	adminUC "github.com/medipro/backend/usecase/admin"
	analyticsUC "github.com/medipro/backend/usecase/analytics"
	copilotUC "github.com/medipro/backend/usecase/copilot"
	patientUC "github.com/medipro/backend/usecase/patient"
	scheduleUC "github.com/medipro/backend/usecase/schedule"
	sessionUC "github.com/medipro/backend/usecase/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Name:     cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	patientRepo := postgres.NewPatientRepository(pool)
	appointmentRepo := postgres.NewAppointmentRepository(pool)
	identityCache := redisRepo.NewIdentityCache(redisClient, cfg.Redis.IdentityTTL)

	mailClient := mail.New(mail.Config{
		BaseURL: cfg.Mail.BaseURL,
		APIKey:  cfg.Mail.APIKey,
		From:    cfg.Mail.From,
		Timeout: cfg.Mail.Timeout,
	}, zapLogger)

	outboxProcessor := services.NewOutboxProcessor(
		outboxStore,
		mon,
		mailClient,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Outbox.DrainInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
		},
	)
	outboxProcessor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		outboxProcessor.Stop(ctx)
		return nil
	})

	outboxBridge := services.NewOutboxBridge(outboxProcessor)

	creds := credstore.New(credstore.Config{
		BaseURL:    cfg.CredStore.BaseURL,
		StreamURL:  cfg.CredStore.StreamURL,
		APIKey:     cfg.CredStore.APIKey,
		ServiceKey: cfg.CredStore.ServiceKey,
		Timeout:    cfg.CredStore.Timeout,
	}, zapLogger)

	directory := services.NewCachedDirectory(userRepo, identityCache, zapLogger)

	sessions := sessionUC.New(creds, directory, zapLogger)
	if snapshot := sessions.Initialize(appCtx); snapshot.Authenticated() {
		zapLogger.Info("session restored", zap.String("user_id", snapshot.User.ID))
	}

	// Auth change notifications keep the session current for the process
	// lifetime; the stream being down is degraded, not fatal.
	go func() {
		if err := sessions.Run(appCtx); err != nil && appCtx.Err() == nil {
			zapLogger.Warn("auth event stream ended", zap.Error(err))
		}
	}()

	aiConfig := openai.DefaultConfig(cfg.AI.APIKey)
	if cfg.AI.BaseURL != "" {
		aiConfig.BaseURL = cfg.AI.BaseURL
	}
	aiClient := openai.NewClientWithConfig(aiConfig)

	patientUseCase := patientUC.New(patientRepo, zapLogger)
	scheduleUseCase := scheduleUC.New(appointmentRepo, patientRepo, outboxBridge, zapLogger)
	analyticsUseCase := analyticsUC.New(appointmentRepo, zapLogger)
	copilotUseCase := copilotUC.New(aiClient, copilotUC.Config{
		FastModel: cfg.AI.FastModel,
		ChatModel: cfg.AI.ChatModel,
	}, zapLogger)
	adminUseCase := adminUC.New(creds, userRepo, identityCache, outboxBridge, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(sessions, creds, ctxAdapter, zapLogger),
		Patient:   apiHandler.NewPatientHandler(patientUseCase, ctxAdapter, zapLogger),
		Schedule:  apiHandler.NewScheduleHandler(scheduleUseCase, ctxAdapter, zapLogger),
		Analytics: apiHandler.NewAnalyticsHandler(analyticsUseCase, ctxAdapter, zapLogger),
		Copilot:   apiHandler.NewCopilotHandler(copilotUseCase, patientUseCase, ctxAdapter, zapLogger),
		Admin:     apiHandler.NewAdminHandler(adminUseCase, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	mw := router.Middleware{
		RequireDoctor: middleware.Guard(cfg.JWT.Secret, directory, guard.RequireDoctor, zapLogger),
		RequireAdmin:  middleware.Guard(cfg.JWT.Secret, directory, guard.RequireAdmin, zapLogger),
	}
	r := router.New(handlers, mw)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
