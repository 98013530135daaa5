package task

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/transport"
)

// Command holds the task write operations.
type Command struct {
	doer Doer
}

func NewCommand(doer Doer) *Command {
	return &Command{doer: doer}
}

// CreateTask posts a new task to the collection.
func (c *Command) CreateTask(ctx context.Context, body models.CreateTaskRequest) (*models.Task, error) {
	var task models.Task
	err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   basePath,
		Route:  basePath,
		Body:   body,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends a partial update. The backend exposes it as PUT.
func (c *Command) UpdateTask(ctx context.Context, taskID string, body models.UpdateTaskRequest) (*models.Task, error) {
	var task models.Task
	err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   itemPath(taskID),
		Route:  basePath + "/{id}",
		Body:   body,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Command) DeleteTask(ctx context.Context, taskID string) error {
	return c.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   itemPath(taskID),
		Route:  basePath + "/{id}",
	}, nil)
}

// UploadTaskAttachment posts file as the "file" field of a multipart body.
func (c *Command) UploadTaskAttachment(ctx context.Context, taskID string, file File) (*models.AttachmentUpload, error) {
	var upload models.AttachmentUpload
	err := c.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   itemPath(taskID) + "/attachments",
		Route:  basePath + "/{id}/attachments",
		File: &transport.Multipart{
			Field:       "file",
			FileName:    file.Name,
			ContentType: file.ContentType,
			Content:     file.Content,
		},
	}, &upload)
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (c *Command) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	return c.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   itemPath(taskID) + "/attachments/" + url.PathEscape(attachmentID),
		Route:  basePath + "/{id}/attachments/{attachmentId}",
	}, nil)
}
