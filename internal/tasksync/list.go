package tasksync

import (
	"context"
	"fmt"

	"github.com/gurkanbulca/taskdesk/internal/api/task"
	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/querycache"
)

// TaskList reads task collections through the cache. List entries share
// the "task" namespace, so every task mutation refreshes them.
type TaskList struct {
	deps Deps
}

func NewTaskList(deps Deps) *TaskList {
	return &TaskList{deps: deps}
}

func (l *TaskList) List(ctx context.Context, filter task.ListFilter) ([]models.Task, error) {
	tasks, err := querycache.Fetch(ctx, l.deps.Cache, ListKey(filter),
		func(ctx context.Context) ([]models.Task, error) {
			return l.deps.Tasks.GetTaskList(ctx, filter)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}
