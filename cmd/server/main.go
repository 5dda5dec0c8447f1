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

	"github.com/cryptosim-ai/internal/config"
	"github.com/cryptosim-ai/internal/handler"
	"github.com/cryptosim-ai/internal/middleware"
	"github.com/cryptosim-ai/internal/models"
	"github.com/cryptosim-ai/internal/repository"
	"github.com/cryptosim-ai/internal/service"
	"github.com/cryptosim-ai/internal/simulation"
	"github.com/cryptosim-ai/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize application logger
	appLog, err := middleware.NewLogger(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		appLog.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis
	rdb := initRedis(cfg)

	// Auto migrate database
	if err := autoMigrate(db); err != nil {
		appLog.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	simRepo := repository.NewSimulationRepository(db)
	batchRepo := repository.NewTradeBatchRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// Simulation policy from config
	policy := simulation.NewPolicy(cfg.Simulation)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	simService := service.NewSimulationService(
		userRepo,
		simRepo,
		batchRepo,
		policy,
		appLog,
		time.Duration(cfg.Scheduler.UserDelayMs)*time.Millisecond,
	)
	walletService := service.NewWalletService(db, userRepo, txRepo, simService, cfg.Simulation.LockedRatio, appLog)
	portfolioService := service.NewPortfolioService(simService, batchRepo, rdb, cfg.Simulation.LockedRatio, appLog)
	chatService := service.NewChatService(chatRepo, rdb, appLog)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	simHandler := handler.NewSimulationHandler(simService)
	walletHandler := handler.NewWalletHandler(walletService)
	portfolioHandler := handler.NewPortfolioHandler(portfolioService, simService)
	chatHandler := handler.NewChatHandler(chatService, appLog)
	adminHandler := handler.NewAdminHandler(simService, walletService, portfolioService)

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLoggerMiddleware(appLog))
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		authHandler.RegisterRoutes(v1)

		// Protected routes
		authMiddleware := middleware.AuthMiddleware(authService)
		adminMiddleware := middleware.AdminMiddleware()

		simHandler.RegisterRoutes(v1, authMiddleware)
		walletHandler.RegisterRoutes(v1, authMiddleware)
		portfolioHandler.RegisterRoutes(v1, authMiddleware)
		chatHandler.RegisterRoutes(v1, authMiddleware)
		adminHandler.RegisterRoutes(v1, authMiddleware, adminMiddleware)
	}

	// Start the daily scheduler
	dailyWorker := worker.NewDailyWorker(simService, cfg.Scheduler.DailyCron, appLog)
	if cfg.Scheduler.Enabled {
		if err := dailyWorker.Start(); err != nil {
			appLog.Fatalf("Failed to start daily worker: %v", err)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLog.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down server...")

	// Stop the scheduler
	if cfg.Scheduler.Enabled {
		dailyWorker.Stop()
	}

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		appLog.Errorf("Error closing Redis connection: %v", err)
	}

	appLog.Info("Server exited properly")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.SimulationPlan{},
		&models.MonthRecord{},
		&models.DailyTradeBatch{},
		&models.Trade{},
		&models.ChatMessage{},
	)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
