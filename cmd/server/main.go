package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/noodles-app/backend/internal/auth"
	"github.com/noodles-app/backend/internal/catalog"
	"github.com/noodles-app/backend/internal/config"
	"github.com/noodles-app/backend/internal/handlers"
	"github.com/noodles-app/backend/internal/logger"
	"github.com/noodles-app/backend/internal/middlewares"
	"github.com/noodles-app/backend/internal/repositories"
	"github.com/noodles-app/backend/internal/services"
	"go.uber.org/zap"
)

const maxRequestSize = 1 * 1024 * 1024 // 1MB, progress batches are small

// @title Noodles Progress API
// @version 1.0
// @description API for vocabulary progress, levels and extended content

// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting Noodles Progress Service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Static catalog shipped with the binary
	static := catalog.New()

	// Initialize JWT token validator (tokens come from the external auth provider)
	tokenValidator := auth.NewTokenValidator(cfg.JWT.Secret)

	// Initialize repositories
	progressRepo := repositories.NewProgressRepository(db)
	levelRepo := repositories.NewLevelRepository(db)
	wordRepo := repositories.NewWordRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)

	// Initialize services
	progressService := services.NewProgressService(progressRepo, zapLogger)
	levelService := services.NewLevelService(levelRepo, zapLogger)
	vocabularyService := services.NewVocabularyService(static, wordRepo, categoryRepo, zapLogger)

	// Initialize middleware
	authMw := auth.Middleware(tokenValidator)

	// Initialize handlers
	progressHandler := handlers.NewProgressHandler(progressService, zapLogger)
	levelHandler := handlers.NewLevelHandler(levelService, zapLogger)
	vocabularyHandler := handlers.NewVocabularyHandler(vocabularyService, levelService, zapLogger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(zapLogger))
	r.Use(middlewares.RecoveryMiddleware(zapLogger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(maxRequestSize))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		progressHandler.RegisterRoutes(r, authMw)
		levelHandler.RegisterRoutes(r, authMw)
		vocabularyHandler.RegisterRoutes(r, authMw)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "noodles_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
