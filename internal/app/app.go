package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"meetspace_backend/internal/auth"
	"meetspace_backend/internal/cache"
	"meetspace_backend/internal/config"
	"meetspace_backend/internal/database"
	"meetspace_backend/internal/email"
	"meetspace_backend/internal/flat"
	"meetspace_backend/internal/handlers"
	"meetspace_backend/internal/logger"
	"meetspace_backend/internal/middleware"
	"meetspace_backend/internal/repositories"
	"meetspace_backend/internal/routes"
	"meetspace_backend/internal/services"
	"meetspace_backend/internal/storage"
	"meetspace_backend/internal/validator"
	"meetspace_backend/internal/workers"
	"meetspace_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	apperrors.SetDebug(cfg.IsDevelopment())
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := database.Up(ctx, cfg.Database.DSN); err != nil {
			logger.Fatal("Migrations failed", "error", err)
		}
	}

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(ctx, cfg.Database.DSN, cfg.IsDevelopment())
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected")

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", "error", err)
	}
	serviceContainer := services.NewServiceContainer(*deps)

	if err := seedFirstAdmin(gormDB, cfg, serviceContainer.AuthService); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	ginRouter := SetupRouter(cfg, gormDB, serviceContainer, routes.Guards{
		JWT:         deps.JWT,
		RoomTokens:  serviceContainer.RoomTokenService,
		AuthLimiter: authLimiter,
	})

	go authLimiter.Cleanup(ctx.Done())
	subscriptionsDone := workers.NewSubscriptionWorker(gormDB, serviceContainer.SubscriptionService,
		time.Duration(cfg.Workers.SubscriptionIntervalMinutes)*time.Minute).Start(ctx)
	meetingsDone := workers.NewMeetingWorker(gormDB, serviceContainer.MeetingService, 0).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	<-subscriptionsDone
	<-meetingsDone

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
}

// buildDependencies собирает внешние зависимости сервисов: Flat, кэш,
// хранилище, почту и подписчиков токенов.
func buildDependencies(ctx context.Context, cfg *config.Config) (*services.Dependencies, error) {
	storageInstance, err := storage.NewStorage(ctx, storage.Config{
		Type:            cfg.Storage.Type,
		BasePath:        cfg.Storage.BasePath,
		PublicURLPrefix: cfg.Storage.PublicURLPrefix,
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		AccessKey:       cfg.Storage.AccessKey,
		SecretKey:       cfg.Storage.SecretKey,
		Endpoint:        cfg.Storage.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	appCache, err := newCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	emailProvider, err := newEmailProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("email: %w", err)
	}

	flatClient := flat.NewClient(cfg.Flat.BaseURL,
		flat.WithTimeout(cfg.FlatTimeout()),
		flat.WithRegion(cfg.Flat.Region),
	)

	return &services.Dependencies{
		Repos:      repositories.NewContainer(),
		FlatAuth:   flatClient.Auth,
		FlatRooms:  flatClient.Rooms,
		FlatUsers:  flatClient.Users,
		FlatTokens: flat.NewTokenSource(flatClient.Auth, appCache, cfg.Flat.ServiceEmail, cfg.Flat.ServicePassword),
		Cache:      appCache,
		Storage:    storageInstance,
		Email:      emailProvider,
		JWT:        auth.NewJWTManager(cfg.JWT.Secret, cfg.SessionTTL()),
		RoomTokens: auth.NewRoomTokenSigner(cfg.JWT.PrivateKey),
		Meeting: services.MeetingConfig{
			PublicSiteURL: cfg.Server.PublicSiteURL,
			ClientKeySalt: cfg.Flat.ClientKeySalt,
		},
		Upload: services.UploadConfig{
			MaxFileSize:  cfg.Upload.MaxAvatarSize,
			AllowedTypes: cfg.Upload.AllowedTypes,
			Folder:       cfg.Storage.Folder,
			MaxSide:      cfg.Upload.AvatarMaxSide,
		},
	}, nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Redis.URL == "" {
		logger.Warn("REDIS_URL is not set, using in-memory cache")
		return cache.NewMemory(), nil
	}
	c, err := cache.NewRedis(ctx, cfg.Redis.URL, "meetspace:")
	if err != nil {
		return nil, err
	}
	logger.Info("Redis cache connected")
	return c, nil
}

func newEmailProvider(cfg *config.Config) (email.Provider, error) {
	templates, err := email.NewTemplateManager()
	if err != nil {
		return nil, err
	}
	if !cfg.Email.Enabled {
		logger.Warn("Email sending is disabled, using mock provider")
		return email.NewMockProvider(templates), nil
	}
	return email.NewGomailProvider(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	}, templates)
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, svc *services.ServiceContainer, guards routes.Guards) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	appHandlers := initializeHandlers(svc, gormDB)
	ginRouter := initializeGinRouter(gormDB, corsOrigins(cfg))
	routes.RegisterRoutes(ginRouter, appHandlers, guards)
	return ginRouter
}

func corsOrigins(cfg *config.Config) []string {
	if len(cfg.Server.CORSOrigins) > 0 {
		return cfg.Server.CORSOrigins
	}
	if cfg.Server.PublicSiteURL != "" {
		return []string{cfg.Server.PublicSiteURL}
	}
	return nil
}

func initializeHandlers(svc *services.ServiceContainer, gormDB *gorm.DB) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, svc.AuthService),
		CustomerHandler:     handlers.NewCustomerHandler(baseHandler, svc.CustomerService, svc.UploadService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(baseHandler, svc.SubscriptionService),
		InvoiceHandler:      handlers.NewInvoiceHandler(baseHandler, svc.InvoiceService),
		DashboardHandler: handlers.NewDashboardHandler(baseHandler, svc.DashboardService, svc.AnalyticsService,
			svc.MeetingService, svc.RoomTokenService, svc.SubscriptionService),
		LMSHandler:    handlers.NewLMSHandler(baseHandler, svc.MeetingService),
		HealthHandler: handlers.NewHealthHandler(gormDB),
	}
}

func initializeGinRouter(db *gorm.DB, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(origins...))
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config, authService services.AuthService) error {
	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	created, err := authService.SeedAdmin(db, cfg.FirstAdminEmail, cfg.FirstAdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("Created first admin user", "email", cfg.FirstAdminEmail)
	} else {
		logger.Info("Admin user already exists. Skipping creation.")
	}
	return nil
}
