// internal/models/task.go
package models

import (
	"time"
)

// Status is the workflow state of a task.
type Status string

// Task status constants
const (
	StatusBacklog    Status = "backlog"
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
)

// Priority is the urgency of a task.
type Priority string

// Priority constants
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// User is referenced by tasks as assignee, reporter, author or uploader.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Attachment is a file owned by exactly one task.
type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
	UploadedBy *User     `json:"uploadedBy,omitempty"`
}

type Subtask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	Assignee    *User      `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Comment is a node of the task's discussion tree. Replies nest without limit.
type Comment struct {
	ID        string     `json:"id"`
	Author    User       `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Replies   []Comment  `json:"replies,omitempty"`
}

type Task struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         Status       `json:"status"`
	Priority       Priority     `json:"priority"`
	Assignees      []User       `json:"assignees"`
	Reporter       *User        `json:"reporter,omitempty"`
	DueDate        *time.Time   `json:"dueDate,omitempty"`
	StartDate      *time.Time   `json:"startDate,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	Attachments    []Attachment `json:"attachments"`
	Subtasks       []Subtask    `json:"subtasks"`
	Comments       []Comment    `json:"comments"`
	Labels         []string     `json:"labels,omitempty"`
	EstimatedHours *float64     `json:"estimatedHours,omitempty"`
	TimeSpent      *float64     `json:"timeSpent,omitempty"`
	ProjectID      string       `json:"projectId,omitempty"`
	ParentTaskID   string       `json:"parentTaskId,omitempty"`
}

// AssigneeIDs returns the ids of the task's assignees in order.
func (t *Task) AssigneeIDs() []string {
	ids := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.ID)
	}
	return ids
}

// IsOverdue reports whether the task is past its due date at now.
// Done and archived tasks are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == StatusDone || t.Status == StatusArchived {
		return false
	}
	return t.DueDate.Before(now)
}

// CompletedSubtasks counts the finished subtasks.
func (t *Task) CompletedSubtasks() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			n++
		}
	}
	return n
}

// CountComments counts every comment in the tree, replies included.
func CountComments(comments []Comment) int {
	n := 0
	for _, c := range comments {
		n += 1 + CountComments(c.Replies)
	}
	return n
}
