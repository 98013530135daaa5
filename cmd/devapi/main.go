// Command devapi runs a development task backend on PostgreSQL or SQLite.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/gurkanbulca/taskdesk/internal/config"
	"github.com/gurkanbulca/taskdesk/internal/database"
	"github.com/gurkanbulca/taskdesk/internal/devapi"
	"github.com/gurkanbulca/taskdesk/internal/healthcheck"
	"github.com/gurkanbulca/taskdesk/internal/repository"
	"github.com/gurkanbulca/taskdesk/internal/telemetry"
	"github.com/gurkanbulca/taskdesk/pkg/auth"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("[ERROR] flush traces: %v", err)
		}
	}()

	log.Printf("Connecting to %s...", cfg.Database.Driver)
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}()

	if cfg.DevAPI.AutoMigrate {
		if err := runAutoMigration(ctx, db); err != nil {
			log.Fatalf("Failed to run auto migration: %v", err)
		}
	}

	tasks := repository.NewTaskRepository(db)
	catalogs := repository.NewStatusCatalogRepository(db)
	if cfg.DevAPI.Seed {
		if err := devapi.Seed(ctx, tasks, catalogs); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	srv := devapi.NewServer(devapi.Options{
		Tasks:          tasks,
		ContractTypes:  repository.NewContractTypeRepository(db),
		StatusCatalogs: catalogs,
		Files:          devapi.NewFileStore(cfg.Upload.Dir),
		TokenManager:   auth.NewTokenManager(cfg.Auth.ServiceSecret, cfg.Auth.TokenDuration),
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.DevAPI.HTTPPort,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	health := healthcheck.New(cfg.Server.EnableReflection, "taskdesk.devapi")
	go func() {
		if err := health.ListenAndServe(cfg.DevAPI.GRPCPort); err != nil {
			log.Printf("[ERROR] health service: %v", err)
		}
	}()

	go func() {
		log.Printf("🚀 TaskDesk dev backend listening on port %s", cfg.DevAPI.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("📴 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] HTTP shutdown: %v", err)
	}
	health.Stop()
	log.Println("✅ Server shutdown complete")
}

// runAutoMigration creates any missing tables.
func runAutoMigration(ctx context.Context, db *sqlx.DB) error {
	log.Println("🔄 Running auto migration...")
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run auto migration: %w", err)
	}
	log.Println("✅ Auto migration completed")
	return nil
}
