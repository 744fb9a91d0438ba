package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/commutehq/corp-rides/internal/api/handlers"
	"github.com/commutehq/corp-rides/internal/api/routes"
	"github.com/commutehq/corp-rides/internal/config"
	"github.com/commutehq/corp-rides/internal/repository/postgres"
	analyticssvc "github.com/commutehq/corp-rides/internal/service/analytics"
	auditsvc "github.com/commutehq/corp-rides/internal/service/audit"
	authsvc "github.com/commutehq/corp-rides/internal/service/auth"
	ridesvc "github.com/commutehq/corp-rides/internal/service/rides"
	userssvc "github.com/commutehq/corp-rides/internal/service/users"
	"github.com/commutehq/corp-rides/pkg/cache"
	"github.com/commutehq/corp-rides/pkg/database"
	"github.com/commutehq/corp-rides/pkg/logger"
	"github.com/commutehq/corp-rides/pkg/monitoring"
	"github.com/commutehq/corp-rides/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting CommuteHQ Corporate Rides API",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName))
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cache.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer cache.Close(redisClient)

	appLogger.Info("Connected to Redis successfully")

	// Initialize PostgreSQL
	postgresDB, err := database.NewPostgresDB(database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		DBName:      cfg.Database.Name,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConnections,
		MaxIdle:     cfg.Database.MaxIdleConns,
		MaxLifetime: cfg.Database.MaxLifetime,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	defer postgresDB.Close()

	appLogger.Info("Connected to PostgreSQL successfully")

	// Initialize WebSocket hub for the admin event feed
	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run()

	// Repositories
	userRepo := postgres.NewUserRepository(postgresDB)
	rideRepo := postgres.NewRideRepository(postgresDB)
	actionRepo := postgres.NewActionRepository(postgresDB)

	// Services
	auditor := auditsvc.NewRecorder(actionRepo, appLogger, nrApp)
	tokens := authsvc.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	authService := authsvc.NewService(userRepo, tokens, redisClient, appLogger, nrApp, cfg.Cache.TTLResetToken)
	usersService := userssvc.NewService(userRepo, auditor, appLogger)
	ridesService := ridesvc.NewService(rideRepo, auditor, wsHub, appLogger, nrApp, ridesvc.Config{
		BaseFare:        cfg.Rides.BaseFare,
		MaxLocationLen:  cfg.Rides.MaxLocationLen,
		MaxReasonLen:    cfg.Rides.MaxReasonLen,
		DefaultPageSize: cfg.Rides.DefaultPageSize,
		MaxPageSize:     cfg.Rides.MaxPageSize,
	})
	analyticsService := analyticssvc.NewService(rideRepo, userRepo, auditor, redisClient, appLogger, cfg.Cache.TTLAnalytics)

	// Handlers
	h := handlers.NewHandlers(authService, usersService, ridesService, auditor, analyticsService, wsHub, appLogger)

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	routes.SetupRoutes(router, h, authService, appLogger, nrApp.Application)

	appLogger.Info("Routes configured successfully")

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}
