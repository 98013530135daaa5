// Package task wraps the backend's /v1/tasks resource. It builds paths and
// payloads only; failures surface unmodified from the transport.
package task

import (
	"context"
	"io"
	"net/url"

	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/transport"
)

const basePath = "/v1/tasks"

// Doer performs backend calls. *transport.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req transport.Request, out any) error
}

// File is an attachment to upload.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// ListFilter narrows GET /v1/tasks. Empty fields are not sent.
type ListFilter struct {
	ProjectID string
	Status    string
	Priority  string
}

// API is the union of the task command and query modules.
type API interface {
	CreateTask(ctx context.Context, body models.CreateTaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, taskID string, body models.UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	UploadTaskAttachment(ctx context.Context, taskID string, file File) (*models.AttachmentUpload, error)
	DeleteAttachment(ctx context.Context, taskID, attachmentID string) error
	GetTaskDetail(ctx context.Context, taskID string) (*models.Task, error)
	GetTaskList(ctx context.Context, filter ListFilter) ([]models.Task, error)
}

// Client combines Command and Query into an API.
type Client struct {
	*Command
	*Query
}

// NewClient creates the task API over doer.
func NewClient(doer Doer) *Client {
	return &Client{
		Command: NewCommand(doer),
		Query:   NewQuery(doer),
	}
}

func itemPath(taskID string) string {
	return basePath + "/" + url.PathEscape(taskID)
}
