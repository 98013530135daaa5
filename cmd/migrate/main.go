package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/gurkanbulca/taskdesk/internal/config"
	"github.com/gurkanbulca/taskdesk/internal/database"
	"github.com/gurkanbulca/taskdesk/internal/devapi"
	"github.com/gurkanbulca/taskdesk/internal/repository"
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

	ctx := context.Background()

	// Connect to database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✅ Migrations completed successfully!")

	if cfg.DevAPI.Seed {
		if err := devapi.Seed(ctx, repository.NewTaskRepository(db), repository.NewStatusCatalogRepository(db)); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}
}
