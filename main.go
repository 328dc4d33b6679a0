package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/openfort-xyz/recoverykit/config"
	"github.com/openfort-xyz/recoverykit/database"
	"github.com/openfort-xyz/recoverykit/handlers"
	"github.com/openfort-xyz/recoverykit/logging"
	"github.com/openfort-xyz/recoverykit/storage"
)

func main() {
	// Load configuration (reads .env and environment variables)
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	loggingConfig := &logging.LogConfig{
		LogDir:     cfg.Logging.Directory,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		LogLevel:   logging.INFO,
	}
	if err := logging.InitLogging(loggingConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	// Initialize database
	if err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Initialize share storage; fall back to in-memory when no bucket is
	// configured so local development works without an object store
	if cfg.Storage.Bucket != "" {
		store, err := storage.NewS3Store(context.Background(), storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
		})
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		storage.Provider = store
	} else {
		logging.WarningLogger.Printf("No storage bucket configured; using in-memory share store")
		storage.Provider = storage.NewMemoryStore()
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	handlers.Echo = e
	if err := handlers.RegisterRoutes(); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	logging.InfoLogger.Printf("Starting session service on port %s", cfg.Server.Port)
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		logging.ErrorLogger.Printf("Failed to start server: %v", err)
	}
}
