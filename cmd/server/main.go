package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ahmetcoskunkizilkaya/crms/internal/apps"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/academics"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/analytics"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/attendance"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/grading"
	"github.com/ahmetcoskunkizilkaya/crms/internal/apps/sections"
	"github.com/ahmetcoskunkizilkaya/crms/internal/cache"
	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/database"
	"github.com/ahmetcoskunkizilkaya/crms/internal/dto"
	"github.com/ahmetcoskunkizilkaya/crms/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/crms/internal/jobs"
	"github.com/ahmetcoskunkizilkaya/crms/internal/logging"
	"github.com/ahmetcoskunkizilkaya/crms/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/crms/internal/repository"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
	"github.com/ahmetcoskunkizilkaya/crms/internal/routes"
	"github.com/ahmetcoskunkizilkaya/crms/internal/services"
	"github.com/ahmetcoskunkizilkaya/crms/internal/storage"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout, optional rotating file)
	stdoutHandler := logging.Setup(logging.Options{Level: slog.LevelInfo, File: cfg.LogFile})

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Role table
	if cfg.RolesConfigPath != "" {
		registry, err := roles.LoadFromFile(cfg.RolesConfigPath)
		if err != nil {
			slog.Error("failed to load roles config", "path", cfg.RolesConfigPath, "error", err)
			os.Exit(1)
		}
		roles.SetDefault(registry)
		slog.Info("roles config loaded", "path", cfg.RolesConfigPath)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateShared(); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}
	if err := database.SeedRoles(database.DB, roles.Default()); err != nil {
		slog.Error("role seeding failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewTee(stdoutHandler, pgLogHandler)))

	// Analytics cache (optional)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	analyticsCache, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.AnalyticsCacheTTL)
	cancel()
	if err != nil {
		slog.Warn("redis unavailable, analytics cache disabled", "error", err)
		analyticsCache = cache.Disabled()
	}

	avatars, err := storage.NewAvatarStore(cfg.AvatarDir, cfg.AvatarMaxSize)
	if err != nil {
		slog.Error("avatar storage init failed", "dir", cfg.AvatarDir, "error", err)
		os.Exit(1)
	}

	// Services
	authService := services.NewAuthService(repository.NewUserRepository(database.DB), cfg, avatars)
	userService := services.NewUserService(database.DB)
	settingService := services.NewSettingService(database.DB, cfg)
	if err := settingService.SeedDefaults(); err != nil {
		slog.Error("settings seeding failed", "error", err)
		os.Exit(1)
	}

	// Domain modules
	plugins := []apps.Plugin{
		academics.New(),
		sections.New(analyticsCache),
		attendance.New(analyticsCache),
		grading.New(analyticsCache, settingService),
		analytics.New(analyticsCache, settingService),
	}
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Maintenance jobs
	scheduler := jobs.NewScheduler()
	for _, job := range jobs.Default(database.DB, cfg) {
		if err := scheduler.Add(job); err != nil {
			slog.Error("job registration failed", "job", job.Name, "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Env,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, database.DB, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService, analyticsCache),
		Users:   handlers.NewUserHandler(userService, analyticsCache),
		Setting: handlers.NewSettingHandler(settingService),
		Health:  handlers.NewHealthHandler(analyticsCache),
		Legal:   handlers.NewLegalHandler(cfg.AppName),
	}, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	scheduler.Stop()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := analyticsCache.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
