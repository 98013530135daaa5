// Command web serves the task administration front-end.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gurkanbulca/taskdesk/internal/api/contracttype"
	"github.com/gurkanbulca/taskdesk/internal/api/task"
	"github.com/gurkanbulca/taskdesk/internal/config"
	"github.com/gurkanbulca/taskdesk/internal/healthcheck"
	"github.com/gurkanbulca/taskdesk/internal/querycache"
	"github.com/gurkanbulca/taskdesk/internal/tasksync"
	"github.com/gurkanbulca/taskdesk/internal/telemetry"
	"github.com/gurkanbulca/taskdesk/internal/transport"
	"github.com/gurkanbulca/taskdesk/internal/validation"
	"github.com/gurkanbulca/taskdesk/internal/web"
	"github.com/gurkanbulca/taskdesk/pkg/auth"
	"github.com/gurkanbulca/taskdesk/pkg/notify"
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

	// Backend client authenticates with short-lived service tokens
	tokens := auth.NewTokenSource(
		auth.NewTokenManager(cfg.Auth.ServiceSecret, cfg.Auth.TokenDuration),
		cfg.Backend.ServiceName,
	)
	client := transport.New(cfg.Backend.BaseURL,
		transport.WithTimeout(cfg.Backend.Timeout),
		transport.WithTokenSource(tokens),
		transport.WithUserAgent(cfg.Backend.ServiceName),
	)

	cache := querycache.New(querycache.Options{
		StaleTime:     cfg.Cache.StaleTime,
		GCTime:        cfg.Cache.GCTime,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	go cache.Run(ctx)

	srv, err := web.NewServer(web.Options{
		Deps: tasksync.Deps{
			Cache:    cache,
			Tasks:    task.NewClient(client),
			Notifier: notify.NewLogNotifier(),
		},
		ContractTypes:  contracttype.NewClient(client),
		Validator:      validation.New(),
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})
	if err != nil {
		log.Fatalf("Failed to create web server: %v", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	health := healthcheck.New(cfg.Server.EnableReflection, "taskdesk.web")
	go func() {
		if err := health.ListenAndServe(cfg.Server.GRPCPort); err != nil {
			log.Printf("[ERROR] health service: %v", err)
		}
	}()

	go func() {
		log.Printf("🚀 TaskDesk web listening on port %s (backend %s)", cfg.Server.HTTPPort, cfg.Backend.BaseURL)
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
