package devapi

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/repository"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

// FixtureUsers are the people referenced by the seeded tasks.
func FixtureUsers() []models.User {
	return []models.User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=John"},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Jane"},
		{ID: "3", Name: "Mike Johnson", Email: "mike@example.com", Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Mike"},
	}
}

// FixtureTasks returns the seeded tasks. TASK-002 and TASK-003 share the
// first task's details with their own ids.
func FixtureTasks() []models.Task {
	u := FixtureUsers()
	john, jane, mike := u[0], u[1], u[2]

	base := func(id, title string, status models.Status, priority models.Priority, assignees ...models.User) models.Task {
		return models.Task{
			ID:    id,
			Title: title,
			Description: `## Requirements
- Implement JWT-based authentication
- Add OAuth2 social login (Google, GitHub)
- Create role-based access control (RBAC)

## Acceptance Criteria
- Users can sign up with email
- Users can login securely
- Token refresh works correctly`,
			Status:    status,
			Priority:  priority,
			Assignees: assignees,
			Reporter:  &mike,
			DueDate:   ptr(day("2025-12-31")),
			StartDate: ptr(day("2025-11-15")),
			CreatedAt: day("2025-11-10"),
			UpdatedAt: day("2025-11-24"),
			Attachments: []models.Attachment{{
				ID:         id + "-att-1",
				Name:       "auth-flow-diagram.png",
				Size:       256000,
				Type:       "image/png",
				URL:        "https://via.placeholder.com/800x600",
				CreatedAt:  day("2025-11-20"),
				UploadedBy: &john,
			}},
			Subtasks: []models.Subtask{
				{ID: id + "-sub-1", Title: "Setup JWT configuration", Completed: true, Assignee: &john, CompletedAt: ptr(day("2025-11-18"))},
				{ID: id + "-sub-2", Title: "Implement Google OAuth", Assignee: &jane, DueDate: ptr(day("2025-12-05"))},
				{ID: id + "-sub-3", Title: "Setup RBAC middleware", Assignee: &john, DueDate: ptr(day("2025-12-10"))},
			},
			Comments: []models.Comment{
				{ID: id + "-com-1", Author: john, Content: "JWT config is ready. Starting OAuth implementation.", CreatedAt: at("2025-11-20T10:30")},
				{ID: id + "-com-2", Author: jane, Content: "Waiting for OAuth app credentials from admin.", CreatedAt: at("2025-11-22T14:15")},
			},
			Labels:         []string{"backend", "security", "authentication"},
			EstimatedHours: ptr(40.0),
			TimeSpent:      ptr(16.0),
		}
	}

	return []models.Task{
		base("TASK-001", "Build user authentication system", models.StatusInProgress, models.PriorityHigh, john, jane),
		base("TASK-002", "Design dashboard UI", models.StatusTodo, models.PriorityMedium, mike),
		base("TASK-003", "Write API documentation", models.StatusBacklog, models.PriorityLow, jane),
	}
}

// FixtureStatusCatalogs lists the workflow statuses in order.
func FixtureStatusCatalogs() []models.StatusCatalog {
	out := make([]models.StatusCatalog, 0, len(models.Statuses))
	for i, s := range models.Statuses {
		out = append(out, models.StatusCatalog{ID: i + 1, StatusName: s.Label()})
	}
	return out
}

// Seed loads the fixtures into an empty database. A database that already
// holds tasks is left alone.
func Seed(ctx context.Context, tasks *repository.TaskRepository, catalogs *repository.StatusCatalogRepository) error {
	_, total, err := tasks.List(ctx, repository.ListFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("check existing tasks: %w", err)
	}
	if total > 0 {
		log.Printf("[INFO] Database holds %d tasks, skipping seed", total)
		return nil
	}

	for _, u := range FixtureUsers() {
		if err := tasks.UpsertUser(ctx, u); err != nil {
			return err
		}
	}
	for _, t := range FixtureTasks() {
		if err := tasks.Import(ctx, t); err != nil {
			return fmt.Errorf("seed %s: %w", t.ID, err)
		}
	}
	if err := catalogs.Replace(ctx, FixtureStatusCatalogs()); err != nil {
		return err
	}
	log.Println("🌱 Seeded fixture tasks")
	return nil
}
