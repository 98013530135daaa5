package web

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gurkanbulca/taskdesk/internal/api/task"
	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/transport"
)

type memTasks struct {
	mu      sync.Mutex
	tasks   []models.Task
	updates map[string][]models.UpdateTaskRequest
	uploads []string
	calls   int
	// fail is returned by every mutation when set.
	fail error
}

var _ task.API = (*memTasks)(nil)

func newMemTasks(tasks ...models.Task) *memTasks {
	return &memTasks{tasks: tasks, updates: map[string][]models.UpdateTaskRequest{}}
}

func (m *memTasks) find(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return &transport.Error{Method: http.MethodGet, Path: "/v1/tasks/" + id, StatusCode: http.StatusNotFound, Message: "Task not found"}
}

func (m *memTasks) CreateTask(_ context.Context, body models.CreateTaskRequest) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	t := models.Task{ID: "TASK-NEW", Title: body.Title, Status: body.Status, Priority: body.Priority}
	m.tasks = append(m.tasks, t)
	return &t, nil
}

func (m *memTasks) UpdateTask(_ context.Context, id string, body models.UpdateTaskRequest) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	i := m.find(id)
	if i < 0 {
		return nil, notFound(id)
	}
	m.updates[id] = append(m.updates[id], body)
	if body.Priority != nil {
		m.tasks[i].Priority = *body.Priority
	}
	if body.Title != nil {
		m.tasks[i].Title = *body.Title
	}
	t := m.tasks[i]
	return &t, nil
}

func (m *memTasks) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	i := m.find(id)
	if i < 0 {
		return notFound(id)
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func (m *memTasks) UploadTaskAttachment(_ context.Context, id string, file task.File) (*models.AttachmentUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	b, _ := io.ReadAll(file.Content)
	m.uploads = append(m.uploads, file.Name+":"+string(b))
	return &models.AttachmentUpload{URL: "/files/" + file.Name, Name: file.Name}, nil
}

func (m *memTasks) DeleteAttachment(_ context.Context, id, attachmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.fail
}

func (m *memTasks) GetTaskDetail(_ context.Context, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return nil, notFound(id)
	}
	t := m.tasks[i]
	return &t, nil
}

func (m *memTasks) GetTaskList(_ context.Context, _ task.ListFilter) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Task, len(m.tasks))
	copy(out, m.tasks)
	return out, nil
}

func (m *memTasks) mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type memContractTypes struct {
	mu    sync.Mutex
	items []models.ContractType
}

func (m *memContractTypes) CreateContractType(_ context.Context, body models.CreateContractTypeRequest) (*models.ContractType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ContractTypeCode == body.ContractTypeCode {
			return nil, &transport.Error{Method: http.MethodPost, Path: "/v1/contract-types", StatusCode: http.StatusConflict, Message: "Contract type code already exists"}
		}
	}
	ct := models.ContractType{ID: body.ContractTypeCode, ContractTypeCode: body.ContractTypeCode, ContractTypeName: body.ContractTypeName}
	m.items = append(m.items, ct)
	return &ct, nil
}

func (m *memContractTypes) GetAll(_ context.Context) ([]models.ContractType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ContractType, len(m.items))
	copy(out, m.items)
	return out, nil
}
