package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// Timestamps are unix milliseconds and flags are 0/1 integers so the same
// statements run on PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		avatar TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		seq BIGINT NOT NULL,
		title TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		reporter_id TEXT,
		due_date BIGINT,
		start_date BIGINT,
		labels TEXT NOT NULL DEFAULT '[]',
		estimated_hours DOUBLE PRECISION,
		time_spent DOUBLE PRECISION,
		project_id TEXT NOT NULL DEFAULT '',
		parent_task_id TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks (project_id)`,
	`CREATE TABLE IF NOT EXISTS task_assignees (
		task_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (task_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		name TEXT NOT NULL,
		size BIGINT NOT NULL,
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		storage_path TEXT NOT NULL DEFAULT '',
		uploaded_by TEXT,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attachments_task ON attachments (task_id)`,
	`CREATE TABLE IF NOT EXISTS subtasks (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		title TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		assignee_id TEXT,
		due_date BIGINT,
		completed_at BIGINT,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		parent_id TEXT NOT NULL DEFAULT '',
		author_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_task ON comments (task_id)`,
	`CREATE TABLE IF NOT EXISTS contract_types (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS status_catalogs (
		id INTEGER PRIMARY KEY,
		status_name TEXT NOT NULL
	)`,
}

// Migrate creates the dev backend's tables when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	log.Println("🔄 Running migrations...")
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	log.Println("✅ Migrations completed")
	return nil
}
