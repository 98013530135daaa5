package task

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/transport"
)

// Query holds the task read operations.
type Query struct {
	doer Doer
}

func NewQuery(doer Doer) *Query {
	return &Query{doer: doer}
}

func (q *Query) GetTaskDetail(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	err := q.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   itemPath(taskID),
		Route:  basePath + "/{id}",
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTaskList fetches the task collection narrowed by filter.
func (q *Query) GetTaskList(ctx context.Context, filter ListFilter) ([]models.Task, error) {
	var tasks []models.Task
	err := q.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   basePath,
		Route:  basePath,
		Query:  filter.values(),
	}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (f ListFilter) values() url.Values {
	v := url.Values{}
	if f.ProjectID != "" {
		v.Set("projectId", f.ProjectID)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Priority != "" {
		v.Set("priority", f.Priority)
	}
	return v
}
