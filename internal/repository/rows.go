package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gurkanbulca/taskdesk/internal/models"
)

type taskRow struct {
	ID             string          `db:"id"`
	Seq            int64           `db:"seq"`
	Title          string          `db:"title"`
	Description    string          `db:"description"`
	Status         string          `db:"status"`
	Priority       string          `db:"priority"`
	ReporterID     sql.NullString  `db:"reporter_id"`
	DueDate        sql.NullInt64   `db:"due_date"`
	StartDate      sql.NullInt64   `db:"start_date"`
	Labels         string          `db:"labels"`
	EstimatedHours sql.NullFloat64 `db:"estimated_hours"`
	TimeSpent      sql.NullFloat64 `db:"time_spent"`
	ProjectID      string          `db:"project_id"`
	ParentTaskID   string          `db:"parent_task_id"`
	CreatedAt      int64           `db:"created_at"`
	UpdatedAt      int64           `db:"updated_at"`
}

const taskColumns = `id, seq, title, description, status, priority, reporter_id, due_date, start_date,
	labels, estimated_hours, time_spent, project_id, parent_task_id, created_at, updated_at`

type assigneeRow struct {
	TaskID string `db:"task_id"`
	UserID string `db:"user_id"`
}

type attachmentRow struct {
	ID          string         `db:"id"`
	TaskID      string         `db:"task_id"`
	Name        string         `db:"name"`
	Size        int64          `db:"size"`
	Type        string         `db:"type"`
	URL         string         `db:"url"`
	StoragePath string         `db:"storage_path"`
	UploadedBy  sql.NullString `db:"uploaded_by"`
	CreatedAt   int64          `db:"created_at"`
}

type subtaskRow struct {
	ID          string         `db:"id"`
	TaskID      string         `db:"task_id"`
	Title       string         `db:"title"`
	Completed   int            `db:"completed"`
	AssigneeID  sql.NullString `db:"assignee_id"`
	DueDate     sql.NullInt64  `db:"due_date"`
	CompletedAt sql.NullInt64  `db:"completed_at"`
	Position    int            `db:"position"`
}

type commentRow struct {
	ID        string        `db:"id"`
	TaskID    string        `db:"task_id"`
	ParentID  string        `db:"parent_id"`
	AuthorID  string        `db:"author_id"`
	Content   string        `db:"content"`
	CreatedAt int64         `db:"created_at"`
	UpdatedAt sql.NullInt64 `db:"updated_at"`
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeLabels(labels []string) string {
	if len(labels) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(labels)
	return string(b)
}

func decodeLabels(raw string) []string {
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil || len(labels) == 0 {
		return nil
	}
	return labels
}

func (r taskRow) toModel() models.Task {
	return models.Task{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         models.Status(r.Status),
		Priority:       models.Priority(r.Priority),
		DueDate:        timePtr(r.DueDate),
		StartDate:      timePtr(r.StartDate),
		CreatedAt:      fromMillis(r.CreatedAt),
		UpdatedAt:      fromMillis(r.UpdatedAt),
		Labels:         decodeLabels(r.Labels),
		EstimatedHours: floatPtr(r.EstimatedHours),
		TimeSpent:      floatPtr(r.TimeSpent),
		ProjectID:      r.ProjectID,
		ParentTaskID:   r.ParentTaskID,
		Assignees:      []models.User{},
		Attachments:    []models.Attachment{},
		Subtasks:       []models.Subtask{},
		Comments:       []models.Comment{},
	}
}
