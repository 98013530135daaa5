package tasksync

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gurkanbulca/taskdesk/internal/api/task"
	"github.com/gurkanbulca/taskdesk/internal/models"
)

// fakeTasks is an in-memory task.API that records calls.
type fakeTasks struct {
	mu      sync.Mutex
	tasks   map[string]models.Task
	calls   map[string]int
	updates []models.UpdateTaskRequest
	err     error
	// gate, when set, blocks mutations until it is closed.
	gate chan struct{}
}

func newFakeTasks(tasks ...models.Task) *fakeTasks {
	f := &fakeTasks{tasks: map[string]models.Task{}, calls: map[string]int{}}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

var _ task.API = (*fakeTasks)(nil)

func (f *fakeTasks) record(op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate, err := f.gate, f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeTasks) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeTasks) CreateTask(_ context.Context, body models.CreateTaskRequest) (*models.Task, error) {
	if err := f.record("create"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := models.Task{ID: fmt.Sprintf("TASK-%03d", len(f.tasks)+1), Title: body.Title, Status: body.Status, Priority: body.Priority}
	f.tasks[t.ID] = t
	return &t, nil
}

func (f *fakeTasks) UpdateTask(_ context.Context, id string, body models.UpdateTaskRequest) (*models.Task, error) {
	if err := f.record("update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, body)
	t := f.tasks[id]
	if body.Priority != nil {
		t.Priority = *body.Priority
	}
	if body.Title != nil {
		t.Title = *body.Title
	}
	f.tasks[id] = t
	return &t, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, id string) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.tasks, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeTasks) UploadTaskAttachment(_ context.Context, taskID string, file task.File) (*models.AttachmentUpload, error) {
	if err := f.record("upload"); err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, file.Content); err != nil {
		return nil, err
	}
	return &models.AttachmentUpload{URL: "/files/" + file.Name, Name: file.Name}, nil
}

func (f *fakeTasks) DeleteAttachment(_ context.Context, _, _ string) error {
	return f.record("delete-attachment")
}

func (f *fakeTasks) GetTaskDetail(_ context.Context, id string) (*models.Task, error) {
	f.mu.Lock()
	f.calls["detail"]++
	t, ok := f.tasks[id]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return &t, nil
}

func (f *fakeTasks) GetTaskList(_ context.Context, filter task.ListFilter) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	var out []models.Task
	for _, t := range f.tasks {
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
